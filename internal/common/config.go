package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/property-annotator/constants"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	OCR    OCRConfig
	LLM    LLMConfig
	Store  StoreConfig
	Pages  PagesConfig
	Log    LogConfig
}

// ServerConfig holds ML backend server configuration
type ServerConfig struct {
	HTTPAddr       string
	GRPCHealthAddr string
	ModelVersion   string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Lang          string
	TessdataDir   string
	FetchTimeout  time.Duration
	MaxImageBytes int64
}

// LLMConfig holds oracle configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	ExtraKeys   []string
	Temperature float32
	Timeout     time.Duration
}

// StoreConfig holds the prediction run log configuration
type StoreConfig struct {
	DSN string
}

// PagesConfig holds page conversion and static serving configuration
type PagesConfig struct {
	Root    string
	BaseURL string
	Addr    string
	DPI     int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":9090"),
			GRPCHealthAddr: getEnv("GRPC_HEALTH_ADDR", ""),
			ModelVersion:   getEnv("MODEL_VERSION", constants.DefaultModelVersion),
		},
		OCR: OCRConfig{
			Lang:          getEnv("OCR_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			FetchTimeout:  getEnvAsDuration("IMAGE_FETCH_TIMEOUT", 60*time.Second),
			MaxImageBytes: getEnvAsInt64("MAX_IMAGE_BYTES", 50<<20),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("CHAT_BASE_URL", "https://chat-ai.academiccloud.de/v1"),
			Model:       getEnv("CHAT_MODEL", "meta-llama-3.1-8b-instruct"),
			APIKey:      getEnv("CHAT_API_KEY", ""),
			ExtraKeys:   getEnvAsList("CHAT_API_KEYS"),
			Temperature: getEnvAsFloat32("CHAT_TEMPERATURE", 0.1),
			Timeout:     getEnvAsDuration("CHAT_TIMEOUT", 30*time.Minute),
		},
		Store: StoreConfig{
			DSN: getEnv("STORE_DSN", ""),
		},
		Pages: PagesConfig{
			Root:    getEnv("PAGES_ROOT", "./files/images"),
			BaseURL: getEnv("PAGES_BASE_URL", "http://host.docker.internal:9900/images"),
			Addr:    getEnv("PAGES_ADDR", ":9900"),
			DPI:     getEnvAsInt("PAGES_DPI", 200),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Credentials returns the oracle credential pool in rotation order: the primary key
// first, then CHAT_API_KEYS, skipping blanks and duplicates.
func (c *Config) Credentials() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, k := range append([]string{c.LLM.APIKey}, c.LLM.ExtraKeys...) {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return NewAppError("CONFIG_ERROR", "CHAT_API_KEY is required", ErrConfig)
	}
	if c.LLM.BaseURL == "" {
		return NewAppError("CONFIG_ERROR", "CHAT_BASE_URL is required", ErrConfig)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "CHAT_MODEL is required", ErrConfig)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrConfig)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return NewAppError("CONFIG_ERROR", "CHAT_TEMPERATURE must be within 0..2", ErrConfig)
	}
	return nil
}

// LogLevel maps LOG_LEVEL onto a slog level; unknown values mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
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

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
