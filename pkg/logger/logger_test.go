package logger

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "development console",
			config: Config{Level: "debug", Development: true, Encoding: "console"},
		},
		{
			name:   "production json",
			config: Config{Level: "info", Encoding: "json"},
		},
		{
			name:   "invalid level falls back to info",
			config: Config{Level: "invalid", Encoding: "json"},
		},
		{
			name:   "stdout output",
			config: Config{Level: "warn", Output: "stdout"},
		},
		{
			name:   "empty encoding uses default",
			config: Config{Level: "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if logger == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestNew_Level(t *testing.T) {
	logger, err := New(Config{Level: "warn", Encoding: "json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled at warn level")
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	logger, err := New(Config{Level: "info", Encoding: "json", Output: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("written")
	_ = logger.Sync()
}

func TestDefault(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "production")

	logger := Default()
	if logger == nil {
		t.Fatal("Default() returned nil")
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("LOG_LEVEL=debug should enable debug")
	}
}

func TestComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	Component(base, "transport", zap.String("base_url", "http://localhost")).Info("ready")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].LoggerName != "transport" {
		t.Errorf("LoggerName = %v, want transport", entries[0].LoggerName)
	}
	fields := entries[0].ContextMap()
	if fields["component"] != "transport" {
		t.Errorf("component = %v, want transport", fields["component"])
	}
	if fields["base_url"] != "http://localhost" {
		t.Errorf("base_url = %v, want http://localhost", fields["base_url"])
	}
}
