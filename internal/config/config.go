package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all process configuration, loaded from environment variables.
type Config struct {
	Port        string
	CORSOrigins []string

	// AI provider settings
	Provider      string
	AssistTimeout time.Duration
	// DebounceWindow is the quiet period after an edit before a suggestion
	// request is actually submitted to the provider.
	DebounceWindow time.Duration

	// Per-connection transport settings
	SendBufferSize int
	MessageRate    float64

	// Persistence
	DBDriver         string
	DBDSN            string
	PersistRooms     bool
	SnapshotSchedule string

	// Optional session lifecycle events
	RedisAddr string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		CORSOrigins:      splitOrigins(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		Provider:         getEnv("AI_PROVIDER", "mock"),
		AssistTimeout:    getEnvDuration("ASSIST_TIMEOUT", 15*time.Second),
		DebounceWindow:   getEnvDuration("ASSIST_DEBOUNCE", 600*time.Millisecond),
		SendBufferSize:   getEnvInt("WS_SEND_BUFFER", 256),
		MessageRate:      getEnvFloat("WS_MESSAGE_RATE", 50),
		DBDriver:         getEnv("DB_DRIVER", "sqlite"),
		DBDSN:            getEnv("DB_DSN", "file:collabcode.db"),
		PersistRooms:     getEnv("PERSIST_ROOMS", "false") == "true",
		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "@every 30s"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Provider {
	case "mock", "gemini":
	default:
		return errors.New("unsupported AI provider: " + cfg.Provider + ". Currently supported: mock, gemini")
	}
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return errors.New("unsupported DB driver: " + cfg.DBDriver + ". Currently supported: sqlite, postgres")
	}
	if cfg.SendBufferSize <= 0 {
		return errors.New("WS_SEND_BUFFER must be positive")
	}
	if cfg.DebounceWindow <= 0 {
		return errors.New("ASSIST_DEBOUNCE must be positive")
	}
	return nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
