package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

// DSN builds a PostgreSQL connection string from config.
func DSN(cfg types.PostgresConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		sslMode,
	)
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// parseUUID converts a string UUID to pgtype.UUID.
func parseUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("%w: %s", types.ErrInvalidID, id)
	}
	var pgID pgtype.UUID
	pgID.Valid = true
	copy(pgID.Bytes[:], parsed[:])
	return pgID, nil
}

// lookupID parses an ID used as a lookup key. A malformed ID cannot match
// any row, so it reports ErrNotFound.
func lookupID(id string) (pgtype.UUID, error) {
	if id == "" {
		return pgtype.UUID{}, types.ErrInvalidID
	}
	pgID, err := parseUUID(id)
	if err != nil {
		return pgtype.UUID{}, types.ErrNotFound
	}
	return pgID, nil
}

// optionalUUID returns an invalid (NULL) UUID for an empty string.
func optionalUUID(id string) (pgtype.UUID, error) {
	if id == "" {
		return pgtype.UUID{}, nil
	}
	return parseUUID(id)
}

func toUUIDString(value pgtype.UUID) string {
	if !value.Valid {
		return ""
	}
	parsed, err := uuid.FromBytes(value.Bytes[:])
	if err != nil {
		return ""
	}
	return parsed.String()
}

// truncate matches PostgreSQL's microsecond timestamp precision so entities
// read back compare equal to what was written.
func truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func truncatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := truncate(*t)
	return &v
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func timeFromPg(value pgtype.Timestamptz) *time.Time {
	if !value.Valid {
		return nil
	}
	t := value.Time.UTC()
	return &t
}

func date(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: types.DateOnly(*t), Valid: true}
}

func dateFromPg(value pgtype.Date) *time.Time {
	if !value.Valid {
		return nil
	}
	t := types.DateOnly(value.Time)
	return &t
}

// list stores nil slices as empty arrays and reads empty arrays back as nil.
func list(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func listFromPg(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}
