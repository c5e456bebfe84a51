// Package config holds runtime settings for the boardpass CLI. Sources are
// layered: defaults, then a JSON file, then environment variables, then
// command-line flags, later sources overriding earlier ones.
package config

import "time"

// Config holds runtime settings for the boardpass CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend REST endpoint.
//   - DatabasePath: path of the local sqlite preference database.
//   - OperationTimeout: bound on every session operation, including the
//     awaited authenticator ceremony.
type Config struct {
	ServerEndpointAddr string        `env:"BOARDPASS_SERVER"`
	DatabasePath       string        `env:"BOARDPASS_DB"`
	OperationTimeout   time.Duration `env:"BOARDPASS_OP_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "boardpass.db"
	c.OperationTimeout = 30 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment, and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
