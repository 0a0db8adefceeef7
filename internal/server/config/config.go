package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr           string
	DatabaseURL    string
	RatesURL       string
	MaxConnsPerIP  int
	MessagesPerMin int
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		Addr:           ":" + getEnv("PORT", "3567"),
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost/gigmsg?sslmode=disable"),
		RatesURL:       getEnv("RATES_URL", ""),
		MaxConnsPerIP:  getEnvInt("MAX_CONNECTIONS_PER_IP", 10),
		MessagesPerMin: getEnvInt("MESSAGES_PER_MIN", 60),
	}
}

func getEnv(key, fallback string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}
