package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for crm-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (passwords,
// signing keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// CORSOrigins is a comma-separated list of allowed origins.
	CORSOrigins string `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:3000"`

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Intake configuration
	Intake IntakeConfig `yaml:"intake"`

	// Storage configuration (offer PDFs)
	Storage StorageConfig `yaml:"storage"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"crm"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"crm_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// URL returns the connection string for pgx.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// SecretKey signs access and refresh tokens. Server fails to start
	// without it outside local env.
	SecretKey string `yaml:"-" env:"AUTH_SECRET_KEY"` // Secret - not in YAML

	// AccessTokenMinutes is the access token lifetime.
	AccessTokenMinutes int `yaml:"access_token_minutes" env:"AUTH_ACCESS_TOKEN_MINUTES" env-default:"30"`

	// RefreshTokenDays is the refresh token lifetime.
	RefreshTokenDays int `yaml:"refresh_token_days" env:"AUTH_REFRESH_TOKEN_DAYS" env-default:"7"`

	// SecureCookies marks auth cookies as HTTPS-only.
	SecureCookies bool `yaml:"secure_cookies" env:"AUTH_SECURE_COOKIES" env-default:"false"`
}

// IntakeConfig holds webhook intake settings.
type IntakeConfig struct {
	// DedupWindowDays is the trailing window within which a repeat contact
	// from the same phone updates an existing lead instead of creating one.
	DedupWindowDays int `yaml:"dedup_window_days" env:"INTAKE_DEDUP_WINDOW_DAYS" env-default:"30"`
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// Path is the root directory for stored offer PDFs.
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"./storage"`
}

// CORSOriginList returns the parsed allowed origins.
func (c *Config) CORSOriginList() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment config: %w", err)
		}
	}

	if cfg.Auth.SecretKey == "" {
		if cfg.Env != "local" {
			return nil, fmt.Errorf("AUTH_SECRET_KEY is required outside local environment")
		}
		cfg.Auth.SecretKey = "local-dev-secret-do-not-use-in-production"
	}

	return cfg, nil
}
