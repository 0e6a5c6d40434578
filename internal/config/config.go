package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPTimeoutsConfig struct {
	Read     time.Duration
	Idle     time.Duration
	Write    time.Duration
	Shutdown time.Duration // how long we give the shutdown process to gracefully terminate
}

type HTTPConfig struct {
	Port     int
	Timeouts HTTPTimeoutsConfig
}

type LoggerConfig struct {
	Level slog.Level
}

type AppConfig struct {
	Name        string
	Environment string // 'dev' | 'prod'
}

type DBConfig struct {
	Path           string
	MigrationsPath string
}

type ProxyConfig struct {
	Trusted bool
}

type TelemetryConfig struct {
	EnableTelemetry bool
	OtelEndpoint    string
}

type AuthConfig struct {
	SessionSecret   string
	SessionLifetime time.Duration
}

// StorageConfig selects the blob backend and bounds a single upload.
type StorageConfig struct {
	Backend        string // 's3' | 'local'
	LocalDir       string
	PublicBaseURL  string
	MaxUploadBytes int64
}

type S3Config struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
}

type Config struct {
	App     AppConfig
	DB      DBConfig
	Proxy   ProxyConfig
	HTTP    HTTPConfig
	Logger  LoggerConfig
	Metrics TelemetryConfig
	Auth    AuthConfig
	Storage StorageConfig
	S3      S3Config
}

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "snapfeed",
			Environment: "prod",
		},
		DB: DBConfig{
			Path:           "snapfeed.db",
			MigrationsPath: "./migrations",
		},
		Proxy: ProxyConfig{
			Trusted: true,
		},
		HTTP: HTTPConfig{
			Port: 3000,
			Timeouts: HTTPTimeoutsConfig{
				Read:     5 * time.Second,
				Write:    30 * time.Second, // uploads need headroom
				Idle:     10 * time.Minute,
				Shutdown: 10 * time.Second,
			},
		},
		Logger: LoggerConfig{
			Level: slog.LevelInfo,
		},
		Metrics: TelemetryConfig{
			OtelEndpoint: "localhost:4318",
		},
		Auth: AuthConfig{
			SessionSecret:   "very-secret-key-change-me-in-production",
			SessionLifetime: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:        "local",
			LocalDir:       "./media",
			PublicBaseURL:  "http://localhost:3000",
			MaxUploadBytes: 32 << 20,
		},
		S3: S3Config{
			Region: "garage",
			Bucket: "snapfeed-media",
		},
	}
}

func LoadWithDefaults() *Config {
	defaults := DefaultConfig()
	return &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", defaults.App.Name),
			Environment: getEnv("APP_ENV", defaults.App.Environment),
		},
		DB: DBConfig{
			Path:           getEnv("DB_PATH", defaults.DB.Path),
			MigrationsPath: getEnv("DB_MIGRATIONS_PATH", defaults.DB.MigrationsPath),
		},
		Proxy: ProxyConfig{
			Trusted: getEnvAsBool("PROXY_TRUSTED", defaults.Proxy.Trusted),
		},
		HTTP: HTTPConfig{
			Port: getEnvAsInt("HTTP_PORT", defaults.HTTP.Port), // don't forget to add ':'
			Timeouts: HTTPTimeoutsConfig{
				Read:     getEnvAsDuration("HTTP_READ_TIMEOUT", defaults.HTTP.Timeouts.Read),
				Write:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", defaults.HTTP.Timeouts.Write),
				Idle:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", defaults.HTTP.Timeouts.Idle),
				Shutdown: getEnvAsDuration("HTTP_SHUTDOWN_DELAY", defaults.HTTP.Timeouts.Shutdown),
			},
		},
		Logger: LoggerConfig{
			Level: getEnvAsLogLevel("LOGGER_LEVEL", defaults.Logger.Level),
		},
		Metrics: TelemetryConfig{
			EnableTelemetry: getEnvAsBool("ENABLE_TELEMETRY", false),
			OtelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", defaults.Metrics.OtelEndpoint),
		},
		Auth: AuthConfig{
			SessionSecret:   getEnv("SESSION_SECRET", defaults.Auth.SessionSecret),
			SessionLifetime: getEnvAsDuration("SESSION_LIFETIME", defaults.Auth.SessionLifetime),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", defaults.Storage.Backend),
			LocalDir:       getEnv("STORAGE_LOCAL_DIR", defaults.Storage.LocalDir),
			PublicBaseURL:  getEnv("STORAGE_PUBLIC_BASE_URL", defaults.Storage.PublicBaseURL),
			MaxUploadBytes: getEnvAsInt64("STORAGE_MAX_UPLOAD_BYTES", defaults.Storage.MaxUploadBytes),
		},
		S3: S3Config{
			Endpoint:      getEnv("S3_ENDPOINT", defaults.S3.Endpoint),
			Region:        getEnv("S3_REGION", defaults.S3.Region),
			AccessKey:     getEnv("S3_ACCESS_KEY", defaults.S3.AccessKey),
			SecretKey:     getEnv("S3_SECRET_KEY", defaults.S3.SecretKey),
			Bucket:        getEnv("S3_BUCKET", defaults.S3.Bucket),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", defaults.S3.PublicBaseURL),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsLogLevel(key string, fallback slog.Level) slog.Level {
	valueStr, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}

	switch strings.ToLower(valueStr) {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("APP_NAME must not be empty")
	}
	if s := strings.ToLower(c.App.Environment); s != "dev" && s != "prod" {
		return fmt.Errorf(`APP_ENV must be "dev" or "prod"`)
	}
	if c.DB.Path == "" {
		return fmt.Errorf("DB_PATH must not be empty")
	}
	if c.DB.MigrationsPath == "" {
		return fmt.Errorf("DB_MIGRATIONS_PATH must not be empty")
	}
	// stay away from well-known ports
	if p := c.HTTP.Port; p < 1024 || p > 65535 {
		return fmt.Errorf("HTTP_PORT must be a positive int between 1024 and 65535, got %d", p)
	}
	if c.HTTP.Timeouts.Read <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT must be positive (e.g., 5s), got %s", c.HTTP.Timeouts.Read)
	}
	if c.HTTP.Timeouts.Write <= 0 {
		return fmt.Errorf("HTTP_WRITE_TIMEOUT must be positive (e.g., 30s), got %s", c.HTTP.Timeouts.Write)
	}
	if c.HTTP.Timeouts.Idle <= 0 {
		return fmt.Errorf("HTTP_IDLE_TIMEOUT must be positive (e.g., 2m), got %s", c.HTTP.Timeouts.Idle)
	}
	if c.HTTP.Timeouts.Shutdown <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_DELAY must be positive (e.g., 10s), got %s", c.HTTP.Timeouts.Shutdown)
	}
	if c.Auth.SessionLifetime <= 0 {
		return fmt.Errorf("SESSION_LIFETIME must be positive (e.g., 24h), got %s", c.Auth.SessionLifetime)
	}
	if c.App.Environment == "prod" {
		if c.Auth.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET must not be empty in production")
		}
		if c.Auth.SessionSecret == "very-secret-key-change-me-in-production" {
			return fmt.Errorf("SESSION_SECRET must be changed from default value for production")
		}
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("STORAGE_LOCAL_DIR must not be empty for the local backend")
		}
	case "s3":
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET must be set for the s3 backend")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set for the s3 backend")
		}
	default:
		return fmt.Errorf(`STORAGE_BACKEND must be "s3" or "local", got %q`, c.Storage.Backend)
	}
	if c.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("STORAGE_MAX_UPLOAD_BYTES must be positive, got %d", c.Storage.MaxUploadBytes)
	}

	// c.Proxy.Trusted will default to true if not valid
	// c.Logger.Level will default to Info if not valid
	return nil
}
