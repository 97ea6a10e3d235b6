package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/safewatch/internal/flagx"
)

type jsonConfig struct {
	ServerAddr string `json:"server_addr"`
}

// parseJson overlays values from the JSON file named by the -c/-config
// flags, when present. Missing fields keep their current values.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &jsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.ServerAddr != "" {
		config.ServerAddr = c.ServerAddr
	}
}
