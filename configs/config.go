package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Config(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	return os.Getenv(key)
}

func ConfigInt64(key string, fallback int64) int64 {
	raw := Config(key)
	if raw == "" {
		return fallback
	}
	val, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("Warning: %s=%q is not a valid integer, using default %d", key, raw, fallback)
		return fallback
	}
	return val
}
