package config

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "stub:\n  organizations:\n    - id: org-a\n      name: A\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, zap.NewNop(), func(cfg *Config) { changes <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	updated := "stub:\n  organizations:\n    - id: org-b\n      name: B\n"
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-changes:
			if len(cfg.Stub.Organizations) == 1 && cfg.Stub.Organizations[0].ID == "org-b" {
				if cfg.File == "" {
					t.Error("reloaded config should record its file")
				}
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	path := writeConfig(t, "client:\n  base_url: http://localhost:8080\n")

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, zap.NewNop(), func(cfg *Config) { changes <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("client:\n  base_url: ftp://nowhere\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case cfg := <-changes:
		t.Errorf("invalid config delivered: %+v", cfg.Client)
	case <-time.After(500 * time.Millisecond):
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/dir/authclient.yaml", zap.NewNop(), func(*Config) {}); err == nil {
		t.Error("NewWatcher() should fail for a missing directory")
	}
}
