package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	DatabaseURL string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueue       string
	AsynqConcurrency int

	LockTTL time.Duration

	CORSAllowAll bool
	CORSOrigins  []string

	AIBaseURL string
	AIAPIKey  string
	AIModel   string

	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioUseSSL        bool
	MinioBucketImports string

	EmailEnabled    bool
	SMTPHost        string
	SMTPPort        int
	SMTPUser        string
	SMTPPassword    string
	EmailFrom       string
	CallCenterEmail string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),

		LockTTL: mustDuration(getEnv("RECORD_LOCK_TTL", "5m")),

		CORSAllowAll: corsAllowAll,
		CORSOrigins:  corsOrigins,

		AIBaseURL: getEnv("AI_BASE_URL", ""),
		AIAPIKey:  getEnv("AI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", "openai/gpt-4o"),

		MinioEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:        strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinioBucketImports: getEnv("MINIO_BUCKET_IMPORTS", "lead-imports"),

		EmailEnabled:    emailEnabled && smtpHost != "",
		SMTPHost:        smtpHost,
		SMTPPort:        mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		EmailFrom:       getEnv("EMAIL_FROM", ""),
		CallCenterEmail: getEnv("CALL_CENTER_EMAIL", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("RECORD_LOCK_TTL must be a positive duration")
	}
	if cfg.EmailEnabled && cfg.EmailFrom == "" {
		return nil, fmt.Errorf("EMAIL_FROM is required when email is enabled")
	}

	return cfg, nil
}

// IsMinioEnabled reports whether object storage is configured. Bulk import is
// unavailable without it.
func (c *Config) IsMinioEnabled() bool {
	return c.MinioEndpoint != "" && c.MinioAccessKey != "" && c.MinioSecretKey != ""
}

// IsAIEnabled reports whether the external scoring collaborator is configured.
// When it is not, scoring falls back to the deterministic heuristic.
func (c *Config) IsAIEnabled() bool {
	return c.AIBaseURL != "" && c.AIAPIKey != ""
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}
