package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/health-reports/constants"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Provider ProviderConfig
	Analysis AnalysisConfig
	Inbox    InboxConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr       string
	HTTPAddr       string
	MaxUploadBytes int64
}

// ProviderConfig holds OpenRouter and OCR related configuration
type ProviderConfig struct {
	APIKey         string
	BaseURL        string
	Referer        string
	Title          string
	DefaultModel   string
	MaxCandidates  int
	Timeout        time.Duration
	OCRTemperature float32
	OCRMaxTokens   int
}

// AnalysisConfig holds configuration for the measurement classification call
type AnalysisConfig struct {
	Model        string
	Temperature  float32
	MaxTextChars int
}

// InboxConfig holds the watched-directory configuration. An empty Dir disables it.
type InboxConfig struct {
	Dir            string
	Debounce       time.Duration
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", "file:health-reports.db?_pragma=busy_timeout(5000)"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 4),
			MaxConnLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr:       getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr:       getEnv("HTTP_ADDR", ":8081"),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", int(constants.MaxDocumentBytes)+1<<20)),
		},
		Provider: ProviderConfig{
			APIKey:         getEnv("OPENROUTER_API_KEY", ""),
			BaseURL:        getEnv("OPENROUTER_BASE_URL", constants.OpenRouterBaseURL),
			Referer:        getEnv("OPENROUTER_REFERER", "https://github.com/joseph-ayodele/health-reports"),
			Title:          getEnv("OPENROUTER_TITLE", "health-reports"),
			DefaultModel:   getEnv("DEFAULT_OCR_MODEL", constants.DefaultOCRModel),
			MaxCandidates:  getEnvAsInt("MAX_PROVIDERS", constants.MaxProviderCandidates),
			Timeout:        getEnvAsDuration("PROVIDER_TIMEOUT", 90*time.Second),
			OCRTemperature: getEnvAsFloat32("OCR_TEMPERATURE", constants.DefaultOCRTemperature),
			OCRMaxTokens:   getEnvAsInt("OCR_MAX_TOKENS", constants.DefaultOCRMaxTokens),
		},
		Analysis: AnalysisConfig{
			Model:        getEnv("ANALYSIS_MODEL", constants.DefaultAnalysisModel),
			Temperature:  getEnvAsFloat32("ANALYSIS_TEMPERATURE", 0.0),
			MaxTextChars: getEnvAsInt("ANALYSIS_MAX_CHARS", 24000),
		},
		Inbox: InboxConfig{
			Dir:            getEnv("INBOX_DIR", ""),
			Debounce:       getEnvAsDuration("INBOX_DEBOUNCE", 750*time.Millisecond),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 5*time.Minute),
		},
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Validate validates the loaded configuration. A missing API key is not a
// configuration error: the pipeline reports it per run.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_URL", c.Database.DSN, Required).
		Field("GRPC_ADDR", c.Server.GRPCAddr, Required).
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("OPENROUTER_BASE_URL", c.Provider.BaseURL, Required, URL).
		Field("DEFAULT_OCR_MODEL", c.Provider.DefaultModel, Required).
		Field("ANALYSIS_MODEL", c.Analysis.Model, Required).
		Field("MAX_PROVIDERS", c.Provider.MaxCandidates, IntBetween(1, constants.MaxProviderCandidates)).
		Field("PROVIDER_TIMEOUT", c.Provider.Timeout, PositiveDuration).
		Field("PROCESS_TIMEOUT", c.Inbox.ProcessTimeout, PositiveDuration)
	if err := v.Error(); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	return nil
}
