package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const devJWTSecret = "dev-secret"

// Config aggregates runtime configuration for the service.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Mail      MailConfig
	RateLimit RateLimitConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	BodyLimitBytes        int
	CORSOrigins           string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN               string
	MaxConns          int32
	MinConns          int32
	RunMigrations     bool
	ConnMaxIdleSec    int32
	ConnMaxLifeSec    int32
	ConnectTimeoutSec int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr               string
	Password           string
	DB                 int
	DialTimeoutMillis  int
	ReadTimeoutMillis  int
	WriteTimeoutMillis int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	TokenTTLMinutes         int
	CookieName              string
	CookieTTLDays           int
	DirectoryTimeoutMillis  int
	PasswordResetTTLMinutes int
	BcryptCost              int
	LoginMaxAttempts        int
	LoginLockoutMinutes     int
	AdminEmail              string
	AdminPassword           string
	AdminName               string
}

// StorageConfig points at the S3-compatible bucket holding uploaded images.
type StorageConfig struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	MaxBytes      int64
}

// MailConfig holds SMTP settings for transactional email.
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
	ContactInbox string
	SiteURL      string
}

// RateLimitConfig tunes the per-client limiter on public write endpoints.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// Load reads configuration from environment variables, applying defaults where possible.
// When CONFIG_FILE names a YAML file of KEY: value pairs, those values act as defaults
// beneath the real environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	src, err := newSource(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(src.get("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  src.get("APP_NAME", "site-cms"),
			Env:                   src.get("APP_ENV", "development"),
			Host:                  src.get("APP_HOST", "0.0.0.0"),
			Port:                  src.get("APP_PORT", "8080"),
			Version:               src.get("APP_VERSION", "dev"),
			RequestTimeoutSeconds: src.getInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitBytes:        src.getInt("HTTP_BODY_LIMIT_BYTES", 8*1024*1024),
			CORSOrigins:           src.get("CORS_ALLOW_ORIGINS", "http://localhost:3000"),
		},
		Postgres: PostgresConfig{
			DSN:               src.get("POSTGRES_DSN", ""),
			MaxConns:          int32(src.getInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:          int32(src.getInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:     src.getBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec:    int32(src.getInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:    int32(src.getInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectTimeoutSec: src.getInt("POSTGRES_CONNECT_TIMEOUT_SECONDS", 5),
		},
		Redis: RedisConfig{
			Addr:               src.get("REDIS_ADDR", "127.0.0.1:6379"),
			Password:           src.get("REDIS_PASSWORD", ""),
			DB:                 redisDB,
			DialTimeoutMillis:  src.getInt("REDIS_DIAL_TIMEOUT_MS", 500),
			ReadTimeoutMillis:  src.getInt("REDIS_READ_TIMEOUT_MS", 300),
			WriteTimeoutMillis: src.getInt("REDIS_WRITE_TIMEOUT_MS", 300),
		},
		Logger: LoggerConfig{
			Level: src.get("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               src.get("AUTH_JWT_SECRET", devJWTSecret),
			TokenTTLMinutes:         src.getInt("AUTH_TOKEN_TTL_MINUTES", 90*24*60),
			CookieName:              src.get("AUTH_COOKIE_NAME", "jwt"),
			CookieTTLDays:           src.getInt("AUTH_COOKIE_TTL_DAYS", 90),
			DirectoryTimeoutMillis:  src.getInt("AUTH_DIRECTORY_TIMEOUT_MS", 3000),
			PasswordResetTTLMinutes: src.getInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 10),
			BcryptCost:              src.getInt("AUTH_BCRYPT_COST", 12),
			LoginMaxAttempts:        src.getInt("AUTH_LOGIN_MAX_ATTEMPTS", 5),
			LoginLockoutMinutes:     src.getInt("AUTH_LOGIN_LOCKOUT_MINUTES", 15),
			AdminEmail:              src.get("ADMIN_EMAIL", ""),
			AdminPassword:           src.get("ADMIN_PASSWORD", ""),
			AdminName:               src.get("ADMIN_NAME", "Administrator"),
		},
		Storage: StorageConfig{
			Endpoint:      src.get("S3_ENDPOINT", ""),
			Region:        src.get("S3_REGION", "us-east-1"),
			Bucket:        src.get("S3_BUCKET", "site-images"),
			AccessKey:     src.get("S3_ACCESS_KEY", ""),
			SecretKey:     src.get("S3_SECRET_KEY", ""),
			PublicBaseURL: src.get("S3_PUBLIC_BASE_URL", ""),
			MaxBytes:      int64(src.getInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		},
		Mail: MailConfig{
			SMTPHost:     src.get("SMTP_HOST", ""),
			SMTPPort:     src.getInt("SMTP_PORT", 587),
			SMTPUsername: src.get("SMTP_USERNAME", ""),
			SMTPPassword: src.get("SMTP_PASSWORD", ""),
			From:         src.get("MAIL_FROM", "noreply@example.com"),
			ContactInbox: src.get("MAIL_CONTACT_INBOX", "hello@example.com"),
			SiteURL:      src.get("SITE_URL", "http://localhost:3000"),
		},
		RateLimit: RateLimitConfig{
			PerSecond: src.getFloat("RATE_LIMIT_PER_SECOND", 0.2),
			Burst:     src.getInt("RATE_LIMIT_BURST", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be set"))
	}
	if c.App.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("AUTH_JWT_SECRET must be changed in production"))
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		errs = append(errs, errors.New("AUTH_TOKEN_TTL_MINUTES must be positive"))
	}
	if c.Auth.CookieTTLDays <= 0 {
		errs = append(errs, errors.New("AUTH_COOKIE_TTL_DAYS must be positive"))
	}
	if c.Auth.CookieName == "" {
		errs = append(errs, errors.New("AUTH_COOKIE_NAME must not be empty"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs in a production deployment.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL is the lifetime of an issued access token.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// CookieTTL is the lifetime of the session cookie.
func (a AuthConfig) CookieTTL() time.Duration {
	return time.Duration(a.CookieTTLDays) * 24 * time.Hour
}

// DirectoryTimeout bounds a single user lookup during authentication.
func (a AuthConfig) DirectoryTimeout() time.Duration {
	if a.DirectoryTimeoutMillis <= 0 {
		return 3 * time.Second
	}
	return time.Duration(a.DirectoryTimeoutMillis) * time.Millisecond
}

// PasswordResetTTL is how long a reset link stays valid.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// LoginLockout is the window failed logins are counted over.
func (a AuthConfig) LoginLockout() time.Duration {
	return time.Duration(a.LoginLockoutMinutes) * time.Minute
}

// DialTimeout bounds establishing a Redis connection.
func (r RedisConfig) DialTimeout() time.Duration {
	return millis(r.DialTimeoutMillis, 500*time.Millisecond)
}

// ReadTimeout bounds a single Redis reply.
func (r RedisConfig) ReadTimeout() time.Duration {
	return millis(r.ReadTimeoutMillis, 300*time.Millisecond)
}

// WriteTimeout bounds a single Redis write.
func (r RedisConfig) WriteTimeout() time.Duration {
	return millis(r.WriteTimeoutMillis, 300*time.Millisecond)
}

// ConnectTimeout bounds dialing Postgres and the startup ping.
func (p PostgresConfig) ConnectTimeout() time.Duration {
	if p.ConnectTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(p.ConnectTimeoutSec) * time.Second
}

func millis(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Millisecond
}

// source resolves keys from the environment first, then from an optional file.
type source struct {
	file map[string]string
}

func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return source{}, fmt.Errorf("read config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return source{}, fmt.Errorf("parse config file: %w", err)
	}
	return source{file: values}, nil
}

func (s source) get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val := s.file[key]; val != "" {
		return val
	}
	return fallback
}

func (s source) getInt(key string, fallback int) int {
	parsed, err := strconv.Atoi(s.get(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getFloat(key string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(s.get(key, ""), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func (s source) getBool(key string, fallback bool) bool {
	parsed, err := strconv.ParseBool(s.get(key, ""))
	if err != nil {
		return fallback
	}
	return parsed
}
