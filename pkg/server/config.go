package server

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Addr        string `yaml:"addr"`         // TCP bind address (e.g. ":4000")
	WSAddr      string `yaml:"ws_addr"`      // WebSocket bind address (empty = disabled)
	MetricsAddr string `yaml:"metrics_addr"` // HTTP bind address for /metrics (empty = disabled)

	IdleTimeoutSeconds int `yaml:"idle_timeout_seconds"` // evict sessions inactive this long
	MaxLineBytes       int `yaml:"max_line_bytes"`       // line limit, newline included

	DBPath string `yaml:"db_path"` // SQLite audit database path (empty = disabled)

	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"` // inbound lines/sec per connection (0 = unlimited)
	RateBurst       int     `yaml:"rate_burst"`         // token bucket burst

	// CLI-only action (run and exit)
	ExportSeen bool `yaml:"-"` // export the username audit as YAML and exit
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:               ":4000",
		MetricsAddr:        ":4002",
		IdleTimeoutSeconds: 60,
		MaxLineBytes:       1024,
		RateLimitPerSec:    10,
		RateBurst:          20,
	}
}

// LoadConfig overlays a YAML file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path) //nolint:gosec // path from user-provided CLI config
	if err != nil {
		return cfg, fmt.Errorf("server: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("server: parse config: %w", err)
	}
	return cfg, nil
}

// FromEnv overlays CHATWIRE_* environment variables. Unset or malformed
// values leave the current setting alone.
func (c *Config) FromEnv() {
	if v := os.Getenv("CHATWIRE_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("CHATWIRE_WS_ADDR"); v != "" {
		c.WSAddr = v
	}
	if v := os.Getenv("CHATWIRE_METRICS_ADDR"); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv("CHATWIRE_IDLE_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.IdleTimeoutSeconds = n
		}
	}
	if v := os.Getenv("CHATWIRE_MAX_LINE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxLineBytes = n
		}
	}
	if v := os.Getenv("CHATWIRE_DB"); v != "" {
		c.DBPath = v
	}
}
