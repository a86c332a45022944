package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	APIBaseURL    string
	SocketURL     string
	IPResolverURL string
	StateDBPath   string
	LogLevel      string
	Lang          string
	PageLimit     int
	HTTPTimeout   time.Duration
}

// Load reads environment variables and returns a populated Config.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		APIBaseURL:    getEnv("API_BASE_URL", "http://localhost:4000"),
		SocketURL:     getEnv("SOCKET_URL", "ws://localhost:4000/socket"),
		IPResolverURL: getEnv("IP_RESOLVER_URL", "https://api.ipify.org?format=json"),
		StateDBPath:   getEnv("STATE_DB_PATH", "chefdesk.db"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Lang:          getEnv("LANG_HEADER", "en"),
		PageLimit:     getEnvInt("PAGE_LIMIT", 10),
		HTTPTimeout:   getEnvDuration("HTTP_TIMEOUT_SECONDS", 15) * time.Second,
	}

	if cfg.APIBaseURL == "" {
		log.Fatal("API_BASE_URL must be set")
	}

	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 10
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback int) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return time.Duration(parsed)
		}
	}
	return time.Duration(fallback)
}
