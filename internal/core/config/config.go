package config

import (
	"time"

	"github.com/vietddude/agentboard/internal/core/domain"
	redisclient "github.com/vietddude/agentboard/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server  ServerConfig       `yaml:"server"`
	Chain   ChainConfig        `yaml:"chain"`
	Backend BackendConfig      `yaml:"backend"`
	Redis   redisclient.Config `yaml:"redis"`
	Logging LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChainConfig holds settings for the monitored chain.
type ChainConfig struct {
	ChainID          domain.ChainID `yaml:"id"`
	RPCURL           string         `yaml:"rpc_url"`
	MulticallAddress string         `yaml:"multicall_address"`
	PollInterval     time.Duration  `yaml:"poll_interval"`
	BalanceMode      string         `yaml:"balance_mode"` // multicall, independent
}

// BackendConfig holds settings for the agent backend API.
type BackendConfig struct {
	URL             string        `yaml:"url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}
