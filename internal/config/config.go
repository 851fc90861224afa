// Package config loads runtime settings from the environment, with a .env
// file honoured when present.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIKey        string        // Gemini API key, required for model calls
	Model         string        // Gemini model name
	BaseURL       string        // generative language API endpoint
	DBPath        string        // sqlite database file
	LogPath       string        // zap log file; terminal output stays clean
	LogLevel      string        // debug/info/warn/error
	HistoryWindow int           // exchanges included in each context build
	LLMTimeout    time.Duration // per-call budget for the model collaborator
	LLMRatePerMin int           // client-side request cap against API quota
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		APIKey:        os.Getenv("GEMINI_API_KEY"),
		Model:         getenv("FITAI_MODEL", "gemini-2.5-flash-lite"),
		BaseURL:       getenv("FITAI_LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		DBPath:        getenv("FITAI_DB_PATH", "fitai.db"),
		LogPath:       getenv("FITAI_LOG_PATH", "fitai.log"),
		LogLevel:      getenv("FITAI_LOG_LEVEL", "info"),
		HistoryWindow: getenvInt("FITAI_HISTORY_WINDOW", 10),
		LLMTimeout:    getenvDuration("FITAI_LLM_TIMEOUT", 60*time.Second),
		LLMRatePerMin: getenvInt("FITAI_LLM_RATE_PER_MIN", 15),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
