// Package config defines the top-level configuration for the swaprelay
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SWAPRELAY_* environment
// variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Redis    RedisConfig    `toml:"redis"`
	Bus      BusConfig      `toml:"bus"`
	Journal  JournalConfig  `toml:"journal"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP / WebSocket server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // empty disables auth

	// RateLimit caps requests per client IP per RateWindowSec seconds.
	// Zero disables rate limiting.
	RateLimit     int `toml:"rate_limit"`
	RateWindowSec int `toml:"rate_window_sec"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// BusConfig names the pub/sub topics the relay observes. Order topics are
// parameterized per upstream address; the full channel name is
// "<order_topic_prefix>:new:<addr>" or "<order_topic_prefix>:settled:<addr>".
type BusConfig struct {
	LiquidityChannel string   `toml:"liquidity_channel"`
	OrderPrefix      string   `toml:"order_prefix"`
	OrderAddrs       []string `toml:"order_addrs"`
}

// JournalConfig holds the optional PostgreSQL event journal parameters.
// The journal is disabled when DSN is empty.
type JournalConfig struct {
	DSN          string `toml:"dsn"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:          4001,
			CORSOrigins:   []string{},
			RateLimit:     0,
			RateWindowSec: 60,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Bus: BusConfig{
			LiquidityChannel: "pool:liquidity",
			OrderPrefix:      "orders",
			OrderAddrs:       []string{},
		},
		Journal: JournalConfig{
			DSN:          "",
			PoolMaxConns: 4,
			PoolMinConns: 0,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Server.RateLimit > 0 && c.Server.RateWindowSec < 1 {
		errs = append(errs, "server: rate_window_sec must be >= 1 when rate_limit is set")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	if c.Bus.LiquidityChannel == "" {
		errs = append(errs, "bus: liquidity_channel must not be empty")
	}
	if c.Bus.OrderPrefix == "" {
		errs = append(errs, "bus: order_prefix must not be empty")
	}
	for _, addr := range c.Bus.OrderAddrs {
		if strings.TrimSpace(addr) == "" {
			errs = append(errs, "bus: order_addrs must not contain empty entries")
			break
		}
	}

	if c.Journal.DSN != "" {
		if c.Journal.PoolMaxConns < 1 {
			errs = append(errs, "journal: pool_max_conns must be >= 1")
		}
		if c.Journal.PoolMinConns < 0 {
			errs = append(errs, "journal: pool_min_conns must be >= 0")
		}
		if c.Journal.PoolMinConns > c.Journal.PoolMaxConns {
			errs = append(errs, "journal: pool_min_conns must not exceed pool_max_conns")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
