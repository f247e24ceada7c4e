package app

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Flarenzy/keygate/internal/auth"
	"github.com/Flarenzy/keygate/internal/cache"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreFile     = "file"

	defaultPort       = "4040"
	defaultSQLitePath = "keygate.db"
)

type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     slog.Level

	KeyStore   string
	DSN        string
	SQLitePath string
	KeyFile    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	APIKey auth.APIKeyOptions

	AuthEnabled bool
	Issuer      string
	Audience    string
	JWKSURL     string
}

// LoadConfig reads the environment. Missing required values are errors so
// the entrypoint can refuse to start.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:          getenv("PORT", defaultPort),
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		KeyStore:      strings.ToLower(getenv("KEY_STORE", StorePostgres)),
		DSN:           os.Getenv("DB_CONN"),
		SQLitePath:    getenv("SQLITE_PATH", defaultSQLitePath),
		KeyFile:       os.Getenv("KEY_FILE"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		Issuer:        os.Getenv("OIDC_ISSUER"),
		Audience:      os.Getenv("OIDC_AUDIENCE"),
		JWKSURL:       os.Getenv("OIDC_JWKS_URL"),
		APIKey:        auth.DefaultAPIKeyOptions(),
	}

	var err error
	if cfg.RedisDB, err = intEnv("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", cache.DefaultTTL); err != nil {
		return Config{}, err
	}
	if cfg.AuthEnabled, err = boolEnv("AUTH_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.APIKey.EnableHeader, err = boolEnv("APIKEY_ENABLE_HEADER", cfg.APIKey.EnableHeader); err != nil {
		return Config{}, err
	}
	if cfg.APIKey.EnableQuery, err = boolEnv("APIKEY_ENABLE_QUERY", cfg.APIKey.EnableQuery); err != nil {
		return Config{}, err
	}
	cfg.APIKey.HeaderName = getenv("APIKEY_HEADER", cfg.APIKey.HeaderName)
	cfg.APIKey.QueryParamName = getenv("APIKEY_QUERY_PARAM", cfg.APIKey.QueryParamName)

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.KeyStore {
	case StorePostgres:
		if c.DSN == "" {
			return fmt.Errorf("missing required environment variable: DB_CONN")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("missing required environment variable: SQLITE_PATH")
		}
	case StoreFile:
		if c.KeyFile == "" {
			return fmt.Errorf("missing required environment variable: KEY_FILE")
		}
	default:
		return fmt.Errorf("KEY_STORE must be one of %s, %s or %s, got %q", StorePostgres, StoreSQLite, StoreFile, c.KeyStore)
	}

	if c.AuthEnabled && c.Issuer == "" {
		return fmt.Errorf("missing required environment variable: OIDC_ISSUER")
	}
	return nil
}

func getenv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func boolEnv(name string, fallback bool) (bool, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
