package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if !cfg.APIEnabled {
		t.Fatal("APIEnabled = false, want true")
	}
	if cfg.APIAddr != "127.0.0.1:3000" {
		t.Fatalf("APIAddr = %q, want 127.0.0.1:3000", cfg.APIAddr)
	}
	if cfg.PullInterval != defaultPullInterval {
		t.Fatalf("PullInterval = %v, want %v", cfg.PullInterval, defaultPullInterval)
	}
	if cfg.ExportEnabled {
		t.Fatal("ExportEnabled = true, want false")
	}
	if cfg.SocketPath == "" {
		t.Fatal("SocketPath is empty")
	}
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "api-port: 8080\npull-interval: 250ms\nexport-enabled: true\nworkload: false\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.APIPort != 8080 {
		t.Fatalf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if cfg.APIAddr != "127.0.0.1:8080" {
		t.Fatalf("APIAddr = %q, want 127.0.0.1:8080", cfg.APIAddr)
	}
	if cfg.PullInterval != 250*time.Millisecond {
		t.Fatalf("PullInterval = %v, want 250ms", cfg.PullInterval)
	}
	if !cfg.ExportEnabled {
		t.Fatal("ExportEnabled = false, want true")
	}
	if cfg.Workload {
		t.Fatal("Workload = true, want false")
	}
}

func TestLoadConfig_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badPort := filepath.Join(dir, "port.yml")
	if err := os.WriteFile(badPort, []byte("api-port: 99999\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfig(badPort); err == nil {
		t.Fatal("loadConfig() accepted api-port 99999")
	}

	badInterval := filepath.Join(dir, "interval.yml")
	if err := os.WriteFile(badInterval, []byte("pull-interval: -1s\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := loadConfig(badInterval); err == nil {
		t.Fatal("loadConfig() accepted a negative pull-interval")
	}
}
