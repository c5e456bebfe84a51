// Package config handles configuration for the development server,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the boardpass development server.
//
// Fields:
//   - EndpointAddr: bind address for the REST endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - TokenValidityDuration: bearer token lifetime.
//   - RPID / RPOrigin / RPDisplayName: WebAuthn relying-party settings used
//     when generating ceremony options.
type Config struct {
	EndpointAddr          string
	SecretKey             string
	TokenValidityDuration time.Duration
	RPID                  string
	RPOrigin              string
	RPDisplayName         string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 1 * time.Hour
	c.RPID = "localhost"
	c.RPOrigin = "http://localhost:8080"
	c.RPDisplayName = "boardpass dev"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from JSON (if present) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
