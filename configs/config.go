package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config returns the value of key, reading .env on first use and falling
// back to the process environment.
func Config(key string) string {
	loadOnce.Do(func() {
		_ = godotenv.Load(".env")
	})

	return os.Getenv(key)
}

func ConfigDefault(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}
