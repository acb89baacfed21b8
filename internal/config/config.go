// Package config loads service configuration from the environment,
// with an optional .env file for development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the backend needs to start.
type Config struct {
	Port      int    // HTTP listen port
	DBPath    string // SQLite database file
	JWTSecret string // Signing secret for player bearer tokens
	AdminKey  string // Static bearer key for admin endpoints; empty disables them
	Scheduler bool   // Run the election scheduler loop
}

// Load reads the environment. A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:      envInt("NATIONSIM_PORT", 8080),
		DBPath:    envStr("NATIONSIM_DB", "data/nationsim.db"),
		JWTSecret: envStr("NATIONSIM_JWT_SECRET", ""),
		AdminKey:  envStr("NATIONSIM_ADMIN_KEY", ""),
		Scheduler: envBool("NATIONSIM_SCHEDULER", true),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
