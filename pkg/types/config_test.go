package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{"no backend", Config{DataDir: "/var/lib/rapport"}, ErrBackendEmpty},
		{"mysql is not supported", Config{Backend: "mysql"}, ErrBackendUnknown},
		{"backend names are case sensitive", Config{Backend: "SQLite"}, ErrBackendUnknown},
		{"sqlite", Config{Backend: BackendSQLite, DataDir: "/var/lib/rapport"}, nil},
		{"sqlite data dir is checked on attach", Config{Backend: BackendSQLite}, nil},
		{"postgres by url", Config{Backend: BackendPostgres, Postgres: PostgresConfig{URL: "postgres://rapport@db/rapport"}}, nil},
		{"postgres by fields", Config{Backend: BackendPostgres, Postgres: PostgresConfig{Host: "db", Port: 5432}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
