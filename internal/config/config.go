// Package config loads rapport settings from config.yaml in the config
// directory, with RAPPORT_ environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/rapport/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "RAPPORT"
)

// Defaults.
const (
	DefaultServerAddr   = ":8080"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultJWTExpiresIn = 24 * time.Hour
	DefaultUpcomingDays = 30
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# rapport configuration
# Every key can be overridden with a RAPPORT_ environment variable,
# for example RAPPORT_AUTH_JWT_SECRET or RAPPORT_SERVER_ADDR.

# Backend selection: sqlite or postgres
backend: sqlite

# Data directory for sqlite (optional; overridable by --data-dir flag)
# data_dir:

log:
  level: info
  format: text

server:
  addr: ":8080"

auth:
  # jwt_secret must be set before running rapport serve
  jwt_secret: ""
  jwt_expires_in: 24h

postgres:
  host: localhost
  port: 5432
  user: rapport
  password: ""
  database: rapport
  sslmode: disable

reminders:
  upcoming_days: 30
`

// Config is the full application configuration.
type Config struct {
	Backend   string               `mapstructure:"backend"`
	DataDir   string               `mapstructure:"data_dir"`
	Log       LogConfig            `mapstructure:"log"`
	Server    ServerConfig         `mapstructure:"server"`
	Auth      AuthConfig           `mapstructure:"auth"`
	Postgres  types.PostgresConfig `mapstructure:"postgres"`
	Reminders RemindersConfig      `mapstructure:"reminders"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// AuthConfig configures access tokens.
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTExpiresIn time.Duration `mapstructure:"jwt_expires_in"`
}

// RemindersConfig sets the default window for upcoming occasions.
type RemindersConfig struct {
	UpcomingDays int `mapstructure:"upcoming_days"`
}

// Load reads config.yaml from configDir. It creates the directory and a
// default config.yaml on first run. A missing file is not an error.
func Load(configDir string) (*Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

// Defaults returns the configuration with only defaults and environment
// overrides applied.
func Defaults() (*Config, error) {
	return decode(newViper())
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("backend", types.BackendSQLite)
	v.SetDefault("data_dir", "")
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_expires_in", DefaultJWTExpiresIn)
	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "rapport")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.database", "rapport")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("reminders.upcoming_days", DefaultUpcomingDays)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Store returns the store configuration for dataDir, which the caller
// resolves from flags, DataDir and the environment.
func (c *Config) Store(dataDir string) types.Config {
	return types.Config{
		Backend:  c.Backend,
		DataDir:  dataDir,
		Postgres: c.Postgres,
	}
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
