package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverFile     = "file"
)

type Config struct {
	viper *viper.Viper
}

// Load reads an optional .env file from the working directory and binds the
// process environment. Values already set in the environment win over .env.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// LoadDatabase is Load for tools that only touch storage and therefore do
// not need the auth settings.
func LoadDatabase() (*Config, error) {
	_ = godotenv.Load()
	cfg := newConfig()
	if err := cfg.validateDatabase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func FromEnv() (*Config, error) {
	cfg := newConfig()
	if err := errors.Join(cfg.validateDatabase(), cfg.validateAuth()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newConfig() *Config {
	v := viper.New()

	v.SetDefault("port", "5000")
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("storage.dir", "./data")
	v.SetDefault("auth.admin_username", "admin")
	v.SetDefault("auth.voter_token_ttl", time.Hour)
	v.SetDefault("auth.admin_token_ttl", 24*time.Hour)
	v.SetDefault("http.allowed_origins", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("sqlite.path", "./data/keyvote.db")

	_ = v.BindEnv("port", "PORT")

	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.url", "DATABASE_URL")
	_ = v.BindEnv("postgres.db", "POSTGRES_DB")
	_ = v.BindEnv("postgres.user", "POSTGRES_USER")
	_ = v.BindEnv("postgres.password", "POSTGRES_PASSWORD")
	_ = v.BindEnv("postgres.host", "POSTGRES_HOST")
	_ = v.BindEnv("postgres.port", "POSTGRES_PORT")
	_ = v.BindEnv("sqlite.path", "SQLITE_PATH")
	_ = v.BindEnv("storage.dir", "DATA_DIR")

	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("auth.key_hash_secret", "KEY_HASH_SECRET")
	_ = v.BindEnv("auth.admin_username", "ADMIN_USERNAME")
	_ = v.BindEnv("auth.admin_password", "ADMIN_PASSWORD")
	_ = v.BindEnv("auth.admin_password_hash", "ADMIN_PASSWORD_HASH")
	_ = v.BindEnv("auth.voter_token_ttl", "VOTER_TOKEN_TTL")
	_ = v.BindEnv("auth.admin_token_ttl", "ADMIN_TOKEN_TTL")

	_ = v.BindEnv("http.allowed_origins", "CORS_ALLOWED_ORIGINS")

	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.format", "LOG_FORMAT")

	return &Config{viper: v}
}

func (c *Config) validateDatabase() error {
	switch c.DatabaseDriver() {
	case DriverPostgres, DriverSQLite, DriverFile:
		return nil
	}
	return fmt.Errorf("DATABASE_DRIVER must be one of postgres, sqlite, file; got %q", c.DatabaseDriver())
}

func (c *Config) validateAuth() error {
	var errs []error

	if c.JWTSecret() == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AdminPassword() == "" && c.AdminPasswordHash() == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required"))
	}
	if c.VoterTokenTTL() <= 0 {
		errs = append(errs, errors.New("VOTER_TOKEN_TTL must be a positive duration"))
	}
	if c.AdminTokenTTL() <= 0 {
		errs = append(errs, errors.New("ADMIN_TOKEN_TTL must be a positive duration"))
	}

	return errors.Join(errs...)
}

func (c *Config) Port() string {
	return c.viper.GetString("port")
}

func (c *Config) DatabaseDriver() string {
	return strings.ToLower(c.viper.GetString("database.driver"))
}

// DatabaseDSN returns the connection string for the configured SQL driver.
// For postgres it falls back to a URL assembled from the POSTGRES_* variables.
func (c *Config) DatabaseDSN() string {
	if dsn := c.viper.GetString("database.url"); dsn != "" {
		return dsn
	}
	if c.DatabaseDriver() == DriverSQLite {
		return c.viper.GetString("sqlite.path")
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.viper.GetString("postgres.user"), c.viper.GetString("postgres.password")),
		Host:     c.viper.GetString("postgres.host") + ":" + c.viper.GetString("postgres.port"),
		Path:     "/" + c.viper.GetString("postgres.db"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) StorageDir() string {
	return c.viper.GetString("storage.dir")
}

func (c *Config) JWTSecret() string {
	return c.viper.GetString("auth.jwt_secret")
}

func (c *Config) KeyHashSecret() string {
	if s := c.viper.GetString("auth.key_hash_secret"); s != "" {
		return s
	}
	return c.JWTSecret()
}

func (c *Config) AdminUsername() string {
	return c.viper.GetString("auth.admin_username")
}

func (c *Config) AdminPassword() string {
	return c.viper.GetString("auth.admin_password")
}

func (c *Config) AdminPasswordHash() string {
	return c.viper.GetString("auth.admin_password_hash")
}

func (c *Config) VoterTokenTTL() time.Duration {
	return c.viper.GetDuration("auth.voter_token_ttl")
}

func (c *Config) AdminTokenTTL() time.Duration {
	return c.viper.GetDuration("auth.admin_token_ttl")
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.viper.GetString("http.allowed_origins"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) LogLevel() string {
	return c.viper.GetString("log.level")
}

func (c *Config) LogFormat() string {
	return c.viper.GetString("log.format")
}
