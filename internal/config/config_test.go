package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IologDir != "/var/log/iologd" {
		t.Errorf("IologDir = %q", cfg.IologDir)
	}
	if cfg.Listen != "127.0.0.1:30343" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	network, addr := cfg.Network()
	if network != "tcp" || addr != "127.0.0.1:30343" {
		t.Errorf("Network() = %q, %q", network, addr)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iologd.yaml")
	content := `iolog_dir: /srv/iolog
socket: /run/iologd.sock
log_level: debug
rate_bytes_per_sec: 1048576
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IologDir != "/srv/iolog" {
		t.Errorf("IologDir = %q", cfg.IologDir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.RateBurst != 1048576 {
		t.Errorf("RateBurst = %d, want rate value", cfg.RateBurst)
	}
	network, addr := cfg.Network()
	if network != "unix" || addr != "/run/iologd.sock" {
		t.Errorf("Network() = %q, %q", network, addr)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iologd.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}
