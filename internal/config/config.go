// Package config defines the top-level configuration for the solver and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MOOSOLVER_* environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Ethereum EthereumConfig `toml:"ethereum"`
	Solver   SolverConfig   `toml:"solver"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Notify   NotifyConfig   `toml:"notify"`
	LogLevel string         `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	APIKey       string   `toml:"api_key"`
	MaxBodyBytes int64    `toml:"max_body_bytes"`
	RateLimit    int      `toml:"rate_limit"`
	RateWindow   duration `toml:"rate_window"`
}

// EthereumConfig holds chain parameters for settlement encoding.
type EthereumConfig struct {
	SettlementContract string `toml:"settlement_contract"`
	ChainID            int    `toml:"chain_id"`
}

// SolverConfig holds solving parameters.
type SolverConfig struct {
	// GuardTTL bounds how long a solved round stays claimed. Zero means the
	// claim never expires.
	GuardTTL duration `toml:"guard_ttl"`

	Pair PairConfig `toml:"pair"`
}

// PairConfig holds the parameters of the single-pair matching strategy: the
// maker-side counter order injected against incoming user orders.
type PairConfig struct {
	TokenIn   string `toml:"token_in"`
	TokenOut  string `toml:"token_out"`
	AmountIn  string `toml:"amount_in"`
	AmountOut string `toml:"amount_out"`
	FeeAmount string `toml:"fee_amount"`
	Maker     string `toml:"maker"`
	ValidTo   uint64 `toml:"valid_to"`
	UID       string `toml:"uid"`
	Signature string `toml:"signature"`
}

// PostgresConfig holds PostgreSQL connection parameters for the settlement
// audit store.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters for the shared execution
// state and the API rate limiter.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for auction
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// NotifyConfig holds notification channel credentials. Username identifies
// this deployment in channels shared by several solvers.
type NotifyConfig struct {
	Username          string   `toml:"username"`
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8000,
			CORSOrigins:  []string{"http://localhost:3000"},
			MaxBodyBytes: 16 << 20,
			RateLimit:    0,
			RateWindow:   duration{time.Second},
		},
		Ethereum: EthereumConfig{
			ChainID: 1,
		},
		Solver: SolverConfig{
			GuardTTL: duration{0},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "moosolver",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "moosolver-auctions",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Notify: NotifyConfig{
			Username: "moo-solver",
			Events:   []string{"won", "rejected"},
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

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, "server: max_body_bytes must be > 0")
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}

	// Ethereum
	if c.Ethereum.SettlementContract == "" {
		errs = append(errs, "ethereum: settlement_contract must not be empty")
	} else if !common.IsHexAddress(c.Ethereum.SettlementContract) {
		errs = append(errs, fmt.Sprintf("ethereum: settlement_contract %q is not a valid address", c.Ethereum.SettlementContract))
	}
	if c.Ethereum.ChainID <= 0 {
		errs = append(errs, "ethereum: chain_id must be positive")
	}

	// Solver pair strategy
	p := c.Solver.Pair
	if p.TokenIn != "" || p.TokenOut != "" {
		if !common.IsHexAddress(p.TokenIn) {
			errs = append(errs, fmt.Sprintf("solver.pair: token_in %q is not a valid address", p.TokenIn))
		}
		if !common.IsHexAddress(p.TokenOut) {
			errs = append(errs, fmt.Sprintf("solver.pair: token_out %q is not a valid address", p.TokenOut))
		}
		if strings.EqualFold(p.TokenIn, p.TokenOut) {
			errs = append(errs, "solver.pair: token_in and token_out must differ")
		}
		if p.AmountIn == "" {
			errs = append(errs, "solver.pair: amount_in must not be empty")
		}
		if p.AmountOut == "" {
			errs = append(errs, "solver.pair: amount_out must not be empty")
		}
		if p.Maker != "" && !common.IsHexAddress(p.Maker) {
			errs = append(errs, fmt.Sprintf("solver.pair: maker %q is not a valid address", p.Maker))
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
