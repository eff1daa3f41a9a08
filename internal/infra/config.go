package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents service configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	DatabaseURL      string
	StoragePath      string
	StorageBaseURL   string
	GeoIPDBPath      string
	ProjectID        string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	VeoAPIKey        string
	VeoModel         string
	VeoBaseURL       string
	PollInterval     time.Duration
	VideoTimeout     time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
}

// LoadConfig reads .env files when present, then builds the configuration
// from the environment with defaults applied.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env", ".env.local")

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		StoragePath:      getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL:   getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		ProjectID:        os.Getenv("PROJECT_ID"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VeoAPIKey:        os.Getenv("VEO_API_KEY"),
		VeoModel:         getEnv("VEO_MODEL", "veo-3.0-generate"),
		VeoBaseURL:       getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		VideoTimeout:     time.Second * time.Duration(getEnvInt("VIDEO_TIMEOUT_SECONDS", 300)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 330)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		AllowedOrigins:   splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if cfg.VideoTimeout <= cfg.PollInterval {
		return nil, fmt.Errorf("VIDEO_TIMEOUT_SECONDS must exceed the poll interval")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
