package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MOOSOLVER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MOOSOLVER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "MOOSOLVER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MOOSOLVER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "MOOSOLVER_SERVER_API_KEY")
	setInt64(&cfg.Server.MaxBodyBytes, "MOOSOLVER_SERVER_MAX_BODY_BYTES")
	setInt(&cfg.Server.RateLimit, "MOOSOLVER_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MOOSOLVER_SERVER_RATE_WINDOW")

	// ── Ethereum ──
	setStr(&cfg.Ethereum.SettlementContract, "MOOSOLVER_ETHEREUM_SETTLEMENT_CONTRACT")
	setInt(&cfg.Ethereum.ChainID, "MOOSOLVER_ETHEREUM_CHAIN_ID")

	// ── Solver ──
	setDuration(&cfg.Solver.GuardTTL, "MOOSOLVER_SOLVER_GUARD_TTL")
	setStr(&cfg.Solver.Pair.TokenIn, "MOOSOLVER_SOLVER_PAIR_TOKEN_IN")
	setStr(&cfg.Solver.Pair.TokenOut, "MOOSOLVER_SOLVER_PAIR_TOKEN_OUT")
	setStr(&cfg.Solver.Pair.AmountIn, "MOOSOLVER_SOLVER_PAIR_AMOUNT_IN")
	setStr(&cfg.Solver.Pair.AmountOut, "MOOSOLVER_SOLVER_PAIR_AMOUNT_OUT")
	setStr(&cfg.Solver.Pair.FeeAmount, "MOOSOLVER_SOLVER_PAIR_FEE_AMOUNT")
	setStr(&cfg.Solver.Pair.Maker, "MOOSOLVER_SOLVER_PAIR_MAKER")
	setUint64(&cfg.Solver.Pair.ValidTo, "MOOSOLVER_SOLVER_PAIR_VALID_TO")
	setStr(&cfg.Solver.Pair.UID, "MOOSOLVER_SOLVER_PAIR_UID")
	setStr(&cfg.Solver.Pair.Signature, "MOOSOLVER_SOLVER_PAIR_SIGNATURE")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "MOOSOLVER_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "MOOSOLVER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "MOOSOLVER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MOOSOLVER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MOOSOLVER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MOOSOLVER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MOOSOLVER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MOOSOLVER_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MOOSOLVER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MOOSOLVER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MOOSOLVER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MOOSOLVER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MOOSOLVER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MOOSOLVER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MOOSOLVER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MOOSOLVER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MOOSOLVER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MOOSOLVER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MOOSOLVER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MOOSOLVER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MOOSOLVER_S3_REGION")
	setStr(&cfg.S3.Bucket, "MOOSOLVER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MOOSOLVER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MOOSOLVER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MOOSOLVER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MOOSOLVER_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.Username, "MOOSOLVER_NOTIFY_USERNAME")
	setStr(&cfg.Notify.TelegramToken, "MOOSOLVER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MOOSOLVER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MOOSOLVER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MOOSOLVER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "MOOSOLVER_LOG_LEVEL")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
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
