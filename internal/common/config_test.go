package common

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CHAT_API_KEY", "k1")
	t.Setenv("CHAT_TIMEOUT", "")
	t.Setenv("CHAT_TEMPERATURE", "")

	cfg := LoadConfig()
	if cfg.LLM.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", cfg.LLM.Timeout)
	}
	if cfg.Server.ModelVersion != "1.1.0" {
		t.Errorf("ModelVersion = %q, want 1.1.0", cfg.Server.ModelVersion)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateMissingKey(t *testing.T) {
	t.Setenv("CHAT_API_KEY", "")

	err := LoadConfig().Validate()
	if err == nil {
		t.Fatal("expected error for missing CHAT_API_KEY")
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("error should wrap ErrConfig, got %v", err)
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Errorf("expected CONFIG_ERROR AppError, got %v", err)
	}
}

func TestCredentialsOrderAndDedup(t *testing.T) {
	t.Setenv("CHAT_API_KEY", "primary")
	t.Setenv("CHAT_API_KEYS", " second, primary ,,third ")

	got := LoadConfig().Credentials()
	want := []string{"primary", "second", "third"}
	if len(got) != len(want) {
		t.Fatalf("Credentials() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Credentials()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		cfg := &Config{Log: LogConfig{Level: in}}
		if got := cfg.LogLevel(); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
