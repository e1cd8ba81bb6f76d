package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/agentboard/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Chain.ChainID == "" {
		cfg.Chain.ChainID = domain.ChainIDGnosis
	}
	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = domain.DefaultRPC(cfg.Chain.ChainID)
	}
	if cfg.Chain.MulticallAddress == "" {
		cfg.Chain.MulticallAddress = string(domain.MulticallAddress)
	}
	if cfg.Chain.PollInterval == 0 {
		cfg.Chain.PollInterval = 5 * time.Second
	}
	if cfg.Chain.BalanceMode == "" {
		cfg.Chain.BalanceMode = "multicall"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Backend.RefreshInterval == 0 {
		cfg.Backend.RefreshInterval = 5 * time.Second
	}

	return &cfg, nil
}
