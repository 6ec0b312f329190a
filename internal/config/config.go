package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultMaxFileSize is the upload cap for the file endpoint (2 GiB).
const DefaultMaxFileSize = 2 * 1024 * 1024 * 1024

type Config struct {
	Port           int
	SecretKey      string
	TempDir        string
	MaxFileSize    int64
	RequestTimeout time.Duration
	SweepInterval  time.Duration
	SweepMaxAge    time.Duration
	CORSOrigins    []string
	LogLevel       string

	// Upstream endpoints, overridable for tests.
	FalQueueURL    string
	FalRestURL     string
	YouTubeBaseURL string
}

func Load() (*Config, error) {
	// Best effort: a missing .env file is fine, env vars take over.
	godotenv.Load()

	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		return nil, errors.New("SECRET_KEY environment variable is required")
	}

	port, _ := strconv.Atoi(getEnv("PORT", "5000"))

	maxFileSize := int64(DefaultMaxFileSize)
	if v := os.Getenv("MAX_FILE_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxFileSize = n
		}
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:           port,
		SecretKey:      secretKey,
		TempDir:        getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "transcript-relay")),
		MaxFileSize:    maxFileSize,
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Minute),
		SweepInterval:  getDuration("SWEEP_INTERVAL", time.Hour),
		SweepMaxAge:    getDuration("SWEEP_MAX_AGE", 24*time.Hour),
		CORSOrigins:    corsOrigins,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		FalQueueURL:    getEnv("FAL_QUEUE_URL", "https://queue.fal.run"),
		FalRestURL:     getEnv("FAL_REST_URL", "https://rest.alpha.fal.ai"),
		YouTubeBaseURL: getEnv("YOUTUBE_BASE_URL", "https://www.youtube.com"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
