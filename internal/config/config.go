// Package config loads process settings from the environment, with .env
// support for local development (teacher's own dependency, previously
// unwired).
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the settings cmd/server needs to boot the engine.
type Config struct {
	Port            string
	DatabaseURL     string
	WordProviderURL string
	DictionaryPath  string
	LogFormat       string
	IsRemoteEnabled bool
}

// Load reads .env (if present) then the environment, falling back to
// sensible local defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		WordProviderURL: getenv("WORD_PROVIDER_URL", ""),
		DictionaryPath:  getenv("DICTIONARY_PATH", "resources/czech.dic"),
		LogFormat:       getenv("LOG_FORMAT", "text"),
		IsRemoteEnabled: getenv("IS_REMOTE_DISPLAY_ENABLED", "false") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
