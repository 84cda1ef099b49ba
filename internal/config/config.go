package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds the server and storyctl configuration.
type Config struct {
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"cyoa"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int32         `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_TIME" default:"5m"`
	DBAutoMigrate bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	// Secret, read from SECRETS_DIR/db_password or DB_PASSWORD.
	DBPassword string `ignored:"true"`

	ImageCacheSize int `envconfig:"IMAGE_CACHE_SIZE" default:"512"`

	// Redis backs the rate limiter when set; otherwise buckets live in memory.
	RedisAddr      string  `envconfig:"REDIS_ADDR"`
	RedisDB        int     `envconfig:"REDIS_DB" default:"0"`
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	// RabbitMQ; story events are dropped when the URL is empty.
	RabbitMQURL      string `envconfig:"RABBITMQ_URL"`
	StoryEventsQueue string `envconfig:"STORY_EVENTS_QUEUE" default:"story_events"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	SecretsDir string `envconfig:"SECRETS_DIR" default:"/run/secrets"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RedactedDSN is GetDSN with the password masked, for logging.
func (c *Config) RedactedDSN() string {
	return fmt.Sprintf("postgres://%s:***@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// RateLimitEnabled reports whether requests should be rate limited at all.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0 && c.RateLimitBurst > 0
}

// LoadConfig reads the environment and, for postgres storage, the database password secret.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch cfg.StorageDriver {
	case StoragePostgres:
		password, err := ReadSecret(cfg.SecretsDir, "db_password", "DB_PASSWORD")
		if err != nil {
			return nil, err
		}
		cfg.DBPassword = password
	case StorageMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want %s or %s)", cfg.StorageDriver, StoragePostgres, StorageMemory)
	}

	if cfg.ImageCacheSize < 0 {
		return nil, fmt.Errorf("IMAGE_CACHE_SIZE must not be negative, got %d", cfg.ImageCacheSize)
	}
	return &cfg, nil
}

// ReadSecret reads a Docker secret from dir/name. If the file does not exist,
// the envFallback variable is used instead; an empty secret is an error.
func ReadSecret(dir, name, envFallback string) (string, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", path)
		}
		return secret, nil
	case errors.Is(err, fs.ErrNotExist) && envFallback != "":
		if secret := strings.TrimSpace(os.Getenv(envFallback)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("secret %s not found in %s and %s is not set", name, path, envFallback)
	default:
		return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
}
