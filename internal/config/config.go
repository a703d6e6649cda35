package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Upstream  UpstreamConfig
	Syncer    SyncerConfig
	Estimator EstimatorConfig
	LogLevel  string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path                  string
	MaxOpenConnections    int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	ConnectionMaxIdleTime time.Duration
}

// UpstreamConfig holds base URLs and client settings for the third-party rail APIs
type UpstreamConfig struct {
	RedbusBaseURL string
	IRCTCBaseURL  string
	MapboxBaseURL string
	MapboxToken   string
	WIMTBaseURL   string
	ProxyURL      string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// SyncerConfig holds station directory sync configuration
type SyncerConfig struct {
	Concurrency int16
	URLsFile    string
}

// EstimatorConfig selects the live feed and tunes the ranking fan-out
type EstimatorConfig struct {
	LiveSource          string // "redbus" or "wimt"
	Concurrency         int
	NextTrainSpeedModel string // "flat" or "delay"
}

// Load reads configuration from the environment (and an optional .env file) with sensible defaults
func Load() *Config {
	// missing .env is fine
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":3000"),
			ReadTimeout:    getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:    getEnvAsDuration("HTTP_IDLE_TIMEOUT", 2*time.Minute),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Path:                  getEnv("DB_PATH", "./data/railpulse.db"),
			MaxOpenConnections:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConnections:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnectionMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnectionMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Upstream: UpstreamConfig{
			RedbusBaseURL: getEnv("REDBUS_BASE_URL", "https://www.redbus.in"),
			IRCTCBaseURL:  getEnv("IRCTC_BASE_URL", "https://www.irctc.co.in"),
			MapboxBaseURL: getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
			MapboxToken:   getEnv("MAPBOX_ACCESS_TOKEN", ""),
			WIMTBaseURL:   getEnv("WIMT_BASE_URL", "https://whereismytrain.in"),
			ProxyURL:      getEnv("PROXY_URL", ""),
			Timeout:       getEnvAsDuration("UPSTREAM_TIMEOUT", 30*time.Second),
			RatePerSecond: getEnvAsFloat("UPSTREAM_RATE_PER_SECOND", 10),
			Burst:         getEnvAsInt("UPSTREAM_BURST", 20),
		},
		Syncer: SyncerConfig{
			Concurrency: int16(getEnvAsInt("SYNCER_CONCURRENCY", 4)),
			URLsFile:    getEnv("SYNCER_URLS_FILE", "./data/train_urls.csv"),
		},
		Estimator: EstimatorConfig{
			LiveSource:          strings.ToLower(getEnv("LIVE_SOURCE", "redbus")),
			Concurrency:         getEnvAsInt("ESTIMATOR_CONCURRENCY", 8),
			NextTrainSpeedModel: strings.ToLower(getEnv("NEXT_TRAIN_SPEED_MODEL", "flat")),
		},
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

// comma separated, blanks dropped
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
