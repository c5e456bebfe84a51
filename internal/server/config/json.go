package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dkurilov/boardpass/internal/flagx"
	"github.com/dkurilov/boardpass/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	RPID                  string         `json:"rp_id"`
	RPOrigin              string         `json:"rp_origin"`
	RPDisplayName         string         `json:"rp_display_name"`
}

// parseJson overlays cfg with values loaded from the JSON file named by the
// -c/-config flags. Read or unmarshal errors panic; startup config is
// fail-fast.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.EndpointAddr != "" {
		cfg.EndpointAddr = jc.EndpointAddr
	}
	if jc.SecretKey != "" {
		cfg.SecretKey = jc.SecretKey
	}
	if jc.TokenValidityDuration.Duration != 0 {
		cfg.TokenValidityDuration = time.Duration(jc.TokenValidityDuration.Duration)
	}
	if jc.RPID != "" {
		cfg.RPID = jc.RPID
	}
	if jc.RPOrigin != "" {
		cfg.RPOrigin = jc.RPOrigin
	}
	if jc.RPDisplayName != "" {
		cfg.RPDisplayName = jc.RPDisplayName
	}
}
