package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Auth        AuthConfig
	CORS        CORSConfig
	Log         LogConfig
	Reports     ReportsConfig
	Embeddings  EmbeddingsConfig
	FaceService FaceServiceConfig
	Exports     ExportsConfig
	RateLimit   RateLimitConfig
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthConfig gates token checks on the management endpoints.
type AuthConfig struct {
	Enabled bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ReportsConfig tunes the attendance report endpoints.
type ReportsConfig struct {
	// Timezone is an IANA name or "Local". Calendar days are cut in this zone.
	Timezone string
	PageSize int
}

// Location resolves Timezone, falling back to the server's local zone.
func (r ReportsConfig) Location() *time.Location {
	if r.Timezone == "" || strings.EqualFold(r.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// EmbeddingsConfig controls caching of the face embeddings document.
type EmbeddingsConfig struct {
	CacheTTL time.Duration
}

// FaceServiceConfig points at the external recognition service.
type FaceServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	Skip    bool
}

// ExportsConfig configures asynchronous report export generation.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// RateLimitConfig bounds request rates on camera-facing endpoints.
type RateLimitConfig struct {
	RecognizePerMinute int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       normalizeDriver(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Auth = AuthConfig{Enabled: v.GetBool("AUTH_ENABLED")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Reports = ReportsConfig{
		Timezone: v.GetString("REPORTS_TIMEZONE"),
		PageSize: v.GetInt("REPORTS_PAGE_SIZE"),
	}

	cfg.Embeddings = EmbeddingsConfig{
		CacheTTL: parseDuration(v.GetString("EMBEDDINGS_CACHE_TTL"), 10*time.Minute),
	}

	cfg.FaceService = FaceServiceConfig{
		BaseURL: strings.TrimRight(v.GetString("FACE_SERVICE_URL"), "/"),
		Timeout: parseDuration(v.GetString("FACE_SERVICE_TIMEOUT"), 30*time.Second),
		Skip:    v.GetBool("FACE_SERVICE_SKIP"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("EXPORTS_ENABLED"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	cfg.RateLimit = RateLimitConfig{
		RecognizePerMinute: v.GetInt("RATE_LIMIT_RECOGNIZE_PER_MINUTE"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "face_attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("AUTH_ENABLED", true)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REPORTS_TIMEZONE", "Local")
	v.SetDefault("REPORTS_PAGE_SIZE", 10)

	v.SetDefault("EMBEDDINGS_CACHE_TTL", "10m")

	v.SetDefault("FACE_SERVICE_URL", "http://localhost:5001")
	v.SetDefault("FACE_SERVICE_TIMEOUT", "30s")
	v.SetDefault("FACE_SERVICE_SKIP", false)

	v.SetDefault("EXPORTS_ENABLED", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("RATE_LIMIT_RECOGNIZE_PER_MINUTE", 120)
}

func normalizeDriver(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case DriverPgx:
		return DriverPgx
	default:
		return DriverPostgres
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
