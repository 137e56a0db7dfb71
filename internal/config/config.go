// Package config loads the application configuration from the environment.
package config

import (
	"fmt"
	"os"
)

// Config holds everything the process reads from the environment.
type Config struct {
	// Shopify app credentials
	APIKey    string
	APISecret string

	// Externally reachable base URL of this deployment, no trailing slash.
	AppURL string

	Port string

	// Persistence backend: "file" (default) or "mongo".
	DBBackend string
	// File backend
	DataDir string
	// Mongo backend
	MongoURI      string
	MongoDatabase string

	// OAuth state backend: "" (same as DBBackend) or "redis".
	StateBackend string
	RedisAddr    string

	// DevAuthFallback accepts a plain shop parameter in place of a
	// verified session token. Must never be enabled in production; only
	// the literal string "true" turns it on.
	DevAuthFallback bool
}

// Load reads configuration from environment variables. Callers run
// godotenv.Load beforehand if a .env file should be honored.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:          os.Getenv("SHOPIFY_API_KEY"),
		APISecret:       os.Getenv("SHOPIFY_API_SECRET"),
		AppURL:          getenv("APP_URL", "http://localhost:8080"),
		Port:            getenv("PORT", "8080"),
		DBBackend:       getenv("DB_BACKEND", "file"),
		DataDir:         getenv("DATA_DIR", "./data"),
		MongoURI:        getenv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getenv("MONGODB_DATABASE", "whatsapp_launcher"),
		StateBackend:    os.Getenv("STATE_BACKEND"),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		DevAuthFallback: os.Getenv("DEV_AUTH_FALLBACK") == "true",
	}

	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("SHOPIFY_API_KEY and SHOPIFY_API_SECRET are required")
	}

	switch cfg.DBBackend {
	case "file", "mongo":
	default:
		return nil, fmt.Errorf("unsupported DB_BACKEND %q", cfg.DBBackend)
	}

	switch cfg.StateBackend {
	case "", "redis":
	default:
		return nil, fmt.Errorf("unsupported STATE_BACKEND %q", cfg.StateBackend)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
