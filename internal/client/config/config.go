// Package config holds the terminal client's settings: defaults, an
// ITRACK_CLIENT_* environment overlay, an optional JSON file and flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces the client's environment variables.
const EnvPrefix = "ITRACK_CLIENT_"

// Config holds runtime settings for the interntrack CLI.
//
// Fields:
//   - ServerURL: base URL of the REST API.
//   - RequestTimeout: per-request deadline.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DownloadDir: directory (relative to the working directory) that
//     downloaded files are saved into.
type Config struct {
	ServerURL           string        `env:"SERVER_URL"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	DownloadDir         string        `env:"DOWNLOAD_DIR"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:5000"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 5 * time.Second
	c.DownloadDir = "downloads"
}

// LoadConfig applies defaults, then environment, JSON (if -c is given) and
// flags. Later sources take precedence.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("env: %w", err)
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
