package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr        string
	AppEnv      string
	LogLevel    string
	DatabaseURL string
	JWTSecret   string
	CORSOrigins string

	CheckoutTimeout time.Duration
	PurchaseRetries int

	KafkaBrokers     []string
	OrderEventsTopic string

	AllowResetProducts bool
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:               getEnv("ECOFINDS_ADDR", ":8080"),
		AppEnv:             getEnv("APP_ENV", "dev"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:5173"),
		CheckoutTimeout:    getEnvDuration("CHECKOUT_TIMEOUT", 10*time.Second),
		PurchaseRetries:    getEnvInt("PURCHASE_RETRIES", 3),
		KafkaBrokers:       splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic:   getEnv("ORDER_EVENTS_TOPIC", "orders.completed"),
		AllowResetProducts: os.Getenv("ALLOW_RESET_PRODUCTS") == "1",
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
