package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config captures the runtime configuration for the vidtube backend service.
type Config struct {
	AppPort      int    `env:"PORT" env-default:"8000" env-description:"HTTP listen port"`
	AppEnv       string `env:"APP_ENV" env-default:"development"`
	Version      string `env:"APP_VERSION" env-default:"dev"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
	DatabaseURL  string `env:"DATABASE_URL" env-required:"true" env-description:"PostgreSQL connection string"`
	MigrationDir string `env:"MIGRATIONS_DIR" env-default:"migrations"`
	SeedDir      string `env:"SEED_DIR" env-default:"seeds"`
	ClientURL    string `env:"CLIENT_URL" env-default:"http://localhost:5173"`
	// CORSOrigins overrides the allowed origins; empty means CLIENT_URL plus localhost:3000.
	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:","`
	RedisURL    string   `env:"REDIS_URL" env-description:"empty keeps reset tokens in memory"`

	HTTP        HTTPConfig
	Auth        AuthConfig
	ObjectStore ObjectStoreConfig
	Media       MediaConfig
	RateLimit   RateLimitConfig
}

// HTTPConfig bounds request handling. Uploads need a generous write timeout.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"5m"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// AuthConfig holds token secrets and lifetimes.
type AuthConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_EXPIRY" env-default:"15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_EXPIRY" env-default:"240h"`
	ResetTTL      time.Duration `env:"RESET_TOKEN_TTL" env-default:"15m"`
}

// ObjectStoreConfig points at the S3-compatible bucket holding uploaded media.
// An empty bucket disables uploads.
type ObjectStoreConfig struct {
	Bucket        string `env:"OBJECT_STORE_BUCKET"`
	Endpoint      string `env:"OBJECT_STORE_ENDPOINT"`
	Region        string `env:"OBJECT_STORE_REGION" env-default:"us-east-1"`
	PublicBaseURL string `env:"OBJECT_STORE_PUBLIC_URL"`
}

// MediaConfig bounds uploads and the duration probe workers.
type MediaConfig struct {
	MaxImageBytes  int64         `env:"MAX_IMAGE_BYTES" env-default:"5242880"`
	MaxVideoBytes  int64         `env:"MAX_VIDEO_BYTES" env-default:"209715200"`
	FFprobePath    string        `env:"FFPROBE_PATH" env-default:"ffprobe"`
	FFprobeTimeout time.Duration `env:"FFPROBE_TIMEOUT" env-default:"30s"`
	ProbeCacheTTL  time.Duration `env:"PROBE_CACHE_TTL" env-default:"15m"`
	Workers        int           `env:"MEDIA_WORKERS" env-default:"2"`
	QueueSize      int           `env:"MEDIA_QUEUE_SIZE" env-default:"32"`
}

// RateLimitConfig throttles the credential endpoints per client IP.
type RateLimitConfig struct {
	Requests int           `env:"AUTH_RATE_LIMIT_REQUESTS" env-default:"10"`
	Window   time.Duration `env:"AUTH_RATE_LIMIT_WINDOW" env-default:"1m"`
	Burst    int           `env:"AUTH_RATE_LIMIT_BURST" env-default:"5"`

	// TrustedProxies may report the client address in X-Forwarded-For. Empty
	// means the header is ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" env-separator:"," env-description:"CIDRs or addresses of reverse proxies"`
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks constraints the struct tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required"))
	} else if c.Auth.AccessSecret == c.Auth.RefreshSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token expiries must be positive"))
	}
	if c.AppPort <= 0 || c.AppPort > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.AppPort))
	}
	if c.Media.MaxImageBytes <= 0 || c.Media.MaxVideoBytes <= 0 {
		errs = append(errs, errors.New("upload limits must be positive"))
	}
	return errors.Join(errs...)
}

// AllowedOrigins returns the CORS origin allow-list.
func (c Config) AllowedOrigins() []string {
	if len(c.CORSOrigins) > 0 {
		return c.CORSOrigins
	}
	return []string{c.ClientURL, "http://localhost:3000"}
}

// Usage describes every environment variable for the CLI help text.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
