package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config regroups everything the binaries read from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	ScraperURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	CheckInterval time.Duration

	// Only used by cmd/scraper.
	GeminiAPIKey string
}

// Load reads .env (when present) and builds the Config from the environment.
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found — using system environment variables")
	} else {
		log.Println("✅ .env file loaded")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		ScraperURL:    getEnv("SCRAPER_URL", "http://localhost:8000"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@pricewatch.app"),
		CheckInterval: getEnvDuration("PRICE_CHECK_INTERVAL", time.Hour),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
