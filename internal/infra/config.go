package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	ProcessorBaseURL       string
	ProcessorAPIKey        string
	ProcessorTimeout       time.Duration
	ProcessorHealthTimeout time.Duration

	StoragePath    string
	StorageBaseURL string
	GeoIPDBPath    string

	WorkerConcurrency  int
	JobPollInterval    time.Duration
	StuckJobThreshold  time.Duration
	StuckSweepInterval time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ProcessorBaseURL:       os.Getenv("PROCESSOR_BASE_URL"),
		ProcessorAPIKey:        os.Getenv("PROCESSOR_API_KEY"),
		ProcessorTimeout:       time.Second * time.Duration(getEnvInt("PROCESSOR_TIMEOUT_SECONDS", 30)),
		ProcessorHealthTimeout: time.Second * time.Duration(getEnvInt("PROCESSOR_HEALTH_TIMEOUT_SECONDS", 5)),

		StoragePath:    getEnv("STORAGE_PATH", "./storage"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),
		GeoIPDBPath:    os.Getenv("GEOIP_DB_PATH"),

		WorkerConcurrency:  getEnvInt("WORKER_CONCURRENCY", 4),
		JobPollInterval:    time.Second * time.Duration(getEnvInt("JOB_POLL_INTERVAL_SECONDS", 2)),
		StuckJobThreshold:  time.Minute * time.Duration(getEnvInt("STUCK_JOB_THRESHOLD_MINUTES", 15)),
		StuckSweepInterval: time.Minute * time.Duration(getEnvInt("STUCK_SWEEP_INTERVAL_MINUTES", 1)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.ProcessorBaseURL == "" {
		return nil, fmt.Errorf("PROCESSOR_BASE_URL is required")
	}

	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
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
