package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "besaha.db"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTTTL            = "24h"
	defaultMaxDistance       = "200"
	defaultVerifyAttempts    = "3"
	defaultReconcileInterval = "1m"
	defaultReconcileGrace    = "2m"
	defaultCacheTTL          = "10m"
	defaultUploadDir         = "./uploads"
	defaultUploadBaseURL     = "/static/uploads"
	defaultMinioBucket       = "review-photos"
	defaultGeminiModel       = "gemini-2.5-flash"
	defaultConciergeTimeout  = "15s"
	defaultRateLimitRPS      = "2"
	defaultRateLimitBurst    = "10"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	Verification VerificationConfig
	Redis        RedisConfig
	Upload       UploadConfig
	Concierge    ConciergeConfig
	RateLimit    RateLimitConfig

	CORSAllowedOrigins []string
}

type VerificationConfig struct {
	MaxDistanceMeters float64
	RetryAttempts     int
	ReconcileInterval time.Duration
	ReconcileGrace    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

// UploadConfig selects the blob store: MinIO when MinioEndpoint is set, local disk otherwise.
type UploadConfig struct {
	Dir            string
	BaseURL        string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

type ConciergeConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}

	if cfg.Verification.MaxDistanceMeters, err = parseFloatEnv("VERIFY_MAX_DISTANCE_M", defaultMaxDistance); err != nil {
		return nil, err
	}
	if cfg.Verification.RetryAttempts, err = parseIntEnv("VERIFY_RETRY_ATTEMPTS", defaultVerifyAttempts); err != nil {
		return nil, err
	}
	if cfg.Verification.ReconcileInterval, err = parseDurationEnv("RECONCILE_INTERVAL", defaultReconcileInterval); err != nil {
		return nil, err
	}
	if cfg.Verification.ReconcileGrace, err = parseDurationEnv("RECONCILE_GRACE", defaultReconcileGrace); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.TTL, err = parseDurationEnv("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}

	cfg.Upload.Dir = strings.TrimSpace(getEnv("UPLOAD_DIR", defaultUploadDir))
	cfg.Upload.BaseURL = strings.TrimSpace(getEnv("UPLOAD_BASE_URL", defaultUploadBaseURL))
	cfg.Upload.MinioEndpoint = strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	cfg.Upload.MinioAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	cfg.Upload.MinioSecretKey = os.Getenv("MINIO_SECRET_KEY")
	cfg.Upload.MinioBucket = strings.TrimSpace(getEnv("MINIO_BUCKET", defaultMinioBucket))
	cfg.Upload.MinioUseSSL = parseBoolEnv("MINIO_USE_SSL", "false")

	cfg.Concierge.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.Concierge.Model = strings.TrimSpace(getEnv("GEMINI_MODEL", defaultGeminiModel))
	if cfg.Concierge.Timeout, err = parseDurationEnv("CONCIERGE_TIMEOUT", defaultConciergeTimeout); err != nil {
		return nil, err
	}

	if cfg.RateLimit.RPS, err = parseFloatEnv("RATE_LIMIT_RPS", defaultRateLimitRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = parseIntEnv("RATE_LIMIT_BURST", defaultRateLimitBurst); err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.Verification.MaxDistanceMeters <= 0 {
		return fmt.Errorf("VERIFY_MAX_DISTANCE_M must be > 0")
	}
	if cfg.Verification.RetryAttempts < 1 {
		return fmt.Errorf("VERIFY_RETRY_ATTEMPTS must be >= 1")
	}
	if cfg.Verification.ReconcileInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be > 0")
	}
	if cfg.Verification.ReconcileGrace < 0 {
		return fmt.Errorf("RECONCILE_GRACE must be >= 0")
	}
	if cfg.Concierge.Timeout <= 0 {
		return fmt.Errorf("CONCIERGE_TIMEOUT must be > 0")
	}
	if cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be > 0 and RATE_LIMIT_BURST >= 1")
	}
	if cfg.Upload.MinioEndpoint != "" && (cfg.Upload.MinioAccessKey == "" || cfg.Upload.MinioSecretKey == "") {
		return fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENDPOINT is set")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}
	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
