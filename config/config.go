// Package config loads application configuration from environment
// variables using go-envconfig.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `env:", prefix=SERVER_"`
	Exchange ExchangeConfig `env:", prefix=EXCHANGE_"`
	Oracle   OracleConfig   `env:", prefix=ORACLE_"`
	Redis    RedisConfig    `env:", prefix=REDIS_"`
	SQLite   SQLiteConfig   `env:", prefix=SQLITE_"`
	Agent    AgentConfig    `env:", prefix=AGENT_"`
	LogLevel string         `env:"LOG_LEVEL, default=info"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr        string   `env:"ADDR, default=:8080"`
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`
}

// ExchangeConfig holds the candle venue settings.
type ExchangeConfig struct {
	BaseURL      string        `env:"BASE_URL, default=https://mainnet.zklighter.elliot.ai"`
	BlockchainID int           `env:"BLOCKCHAIN_ID, default=1"`
	Timeout      time.Duration `env:"TIMEOUT, default=15s"`
}

// OracleConfig holds the decision oracle settings.
type OracleConfig struct {
	BaseURL     string  `env:"BASE_URL, default=https://openrouter.ai/api/v1"`
	APIKey      string  `env:"API_KEY"`
	Model       string  `env:"MODEL, default=google/gemini-3-flash-preview"`
	Temperature float64 `env:"TEMPERATURE, default=0.1"`
}

// RedisConfig holds the account store settings.
type RedisConfig struct {
	Addr     string `env:"ADDR, default=localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB, default=0"`
}

// SQLiteConfig holds the audit journal settings.
type SQLiteConfig struct {
	Path string `env:"PATH, default=data/journal.db"`
}

// AgentConfig holds the cycle loop settings.
type AgentConfig struct {
	InitialBalance float64 `env:"INITIAL_BALANCE, default=1000"`

	// CycleInterval of 0 disables the loop; cycles then run only via
	// POST /api/v1/trade_decision.
	CycleInterval time.Duration `env:"CYCLE_INTERVAL, default=0"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &cfg, nil
}
