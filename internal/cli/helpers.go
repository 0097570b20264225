package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rapport/internal/app"
	"github.com/mesh-intelligence/rapport/internal/paths"
	"github.com/mesh-intelligence/rapport/pkg/types"
)

const dateLayout = "2006-01-02"

// errUsage marks command-line mistakes that are not domain errors.
var errUsage = errors.New("invalid usage")

// usageArgs marks errors from an argument validator as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", errUsage, err)
		}
		return nil
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return usageArgs(cobra.ExactArgs(n))
}

// storeConfig resolves the data directory and returns the store config.
func (s *session) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(s.dataDir, s.cfg.DataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return s.cfg.Store(dataDir), nil
}

// withServices opens the store, runs fn with the services built on it, and
// detaches the store.
func (s *session) withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Services) error) (err error) {
	storeCfg, err := s.storeConfig()
	if err != nil {
		return err
	}
	store, err := app.OpenStore(s.log, storeCfg)
	if err != nil {
		return err
	}
	defer func() {
		if derr := store.Detach(); derr != nil && err == nil {
			err = fmt.Errorf("detach store: %w", derr)
		}
	}()
	return fn(cmd.Context(), app.NewServices(s.log, store, s.clock))
}

// caller resolves --as to a user.
func (s *session) caller(ctx context.Context, svc *app.Services) (*types.User, error) {
	if strings.TrimSpace(s.as) == "" {
		return nil, fmt.Errorf("%w: --as <email> is required", errUsage)
	}
	u, err := svc.Accounts.GetByEmail(ctx, s.as)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("no user with email %q: %w", s.as, err)
	}
	return u, err
}

// emit writes v as indented JSON in --json mode and calls text otherwise.
func (s *session) emit(w io.Writer, v any, text func(w io.Writer)) error {
	if s.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

// parseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
// An empty value yields nil.
func parseDate(flag, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s %q: expected YYYY-MM-DD or RFC 3339: %w", flag, value, types.ErrInvalidData)
	}
	t = t.UTC()
	return &t, nil
}

// splitList splits a comma-separated flag value, dropping blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
