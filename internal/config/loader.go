package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SWAPRELAY_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SWAPRELAY_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "SWAPRELAY_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SWAPRELAY_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SWAPRELAY_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "SWAPRELAY_SERVER_RATE_LIMIT")
	setInt(&cfg.Server.RateWindowSec, "SWAPRELAY_SERVER_RATE_WINDOW_SEC")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SWAPRELAY_REDIS_ADDR")
	setStr(&cfg.Redis.Addr, "SWAPRELAY_REDIS_URL") // compatibility alias
	setStr(&cfg.Redis.Password, "SWAPRELAY_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SWAPRELAY_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SWAPRELAY_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SWAPRELAY_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SWAPRELAY_REDIS_TLS_ENABLED")

	// ── Bus ──
	setStr(&cfg.Bus.LiquidityChannel, "SWAPRELAY_BUS_LIQUIDITY_CHANNEL")
	setStr(&cfg.Bus.OrderPrefix, "SWAPRELAY_BUS_ORDER_PREFIX")
	setStringSlice(&cfg.Bus.OrderAddrs, "SWAPRELAY_BUS_ORDER_ADDRS")

	// ── Journal ──
	setStr(&cfg.Journal.DSN, "SWAPRELAY_JOURNAL_DSN")
	setInt(&cfg.Journal.PoolMaxConns, "SWAPRELAY_JOURNAL_POOL_MAX_CONNS")
	setInt(&cfg.Journal.PoolMinConns, "SWAPRELAY_JOURNAL_POOL_MIN_CONNS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "SWAPRELAY_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
