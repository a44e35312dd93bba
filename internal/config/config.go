// Package config loads the daemon's YAML configuration and watches it
// for live changes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds daemon settings persisted in iologd.yaml.
type Config struct {
	// IologDir is the root under which session directories are
	// created (<root>/<host>/<user>/XXXXXX).
	IologDir string `yaml:"iolog_dir"`

	// Listen is a TCP address; Socket is a unix socket path. Socket
	// wins when both are set.
	Listen string `yaml:"listen,omitempty"`
	Socket string `yaml:"socket,omitempty"`

	// DB is the sqlite session-index path.
	DB string `yaml:"db,omitempty"`

	LogLevel string `yaml:"log_level,omitempty"`
	LogFile  string `yaml:"log_file,omitempty"`

	// Per-connection byte-rate limit; zero disables limiting.
	RateBytesPerSec int `yaml:"rate_bytes_per_sec,omitempty"`
	RateBurst       int `yaml:"rate_burst,omitempty"`
}

// Load reads path, falling back to defaults for anything unset. A
// missing file is not an error; the defaults stand alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.IologDir == "" {
		c.IologDir = "/var/log/iologd"
	}
	if c.Listen == "" && c.Socket == "" {
		c.Listen = "127.0.0.1:30343"
	}
	if c.DB == "" {
		c.DB = "iologd.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RateBurst == 0 && c.RateBytesPerSec > 0 {
		c.RateBurst = c.RateBytesPerSec
	}
}

// Network returns the listener network and address derived from the
// Socket/Listen pair.
func (c *Config) Network() (network, addr string) {
	if c.Socket != "" {
		return "unix", c.Socket
	}
	return "tcp", c.Listen
}
