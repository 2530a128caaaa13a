package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		LogDir:                  "/home/user/.local/share/prosync/log",
		ConnectionsPath:         "/home/user/.local/share/prosync/connections.json",
		ModTimeToleranceSeconds: 2,
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.ConnectionsPath != original.ConnectionsPath {
		t.Errorf("ConnectionsPath = %q, want %q", got.ConnectionsPath, original.ConnectionsPath)
	}
	if got.ModTimeToleranceSeconds != 2 {
		t.Errorf("ModTimeToleranceSeconds = %d, want 2", got.ModTimeToleranceSeconds)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/prosync")

	if cfg.LogDir != "/data/prosync/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/prosync/log")
	}
	if cfg.ConnectionsPath != "/data/prosync/connections.json" {
		t.Errorf("ConnectionsPath = %q, want %q", cfg.ConnectionsPath, "/data/prosync/connections.json")
	}
	if cfg.ModTimeToleranceSeconds != 1 {
		t.Errorf("ModTimeToleranceSeconds = %d, want 1", cfg.ModTimeToleranceSeconds)
	}
}

func TestConfig_ModTimeTolerance(t *testing.T) {
	cfg := &Config{ModTimeToleranceSeconds: 5}
	if got := cfg.ModTimeTolerance(); got != 5*time.Second {
		t.Errorf("ModTimeTolerance() = %v, want 5s", got)
	}

	// Zero and negative fall back to the default.
	cfg.ModTimeToleranceSeconds = 0
	if got := cfg.ModTimeTolerance(); got != time.Second {
		t.Errorf("ModTimeTolerance() = %v, want 1s", got)
	}
	cfg.ModTimeToleranceSeconds = -3
	if got := cfg.ModTimeTolerance(); got != time.Second {
		t.Errorf("ModTimeTolerance() = %v, want 1s", got)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "prosync.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "prosync.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "prosync.toml")
		cfg := NewConfig(dir)
		cfg.ModTimeToleranceSeconds = 3

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.ModTimeToleranceSeconds != 3 {
			t.Errorf("ModTimeToleranceSeconds = %d, want 3", got.ModTimeToleranceSeconds)
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/prosync.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
