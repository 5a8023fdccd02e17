package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	s3blob "github.com/MooMaker/moo-solver/internal/blob/s3"
	"github.com/MooMaker/moo-solver/internal/cache/redis"
	"github.com/MooMaker/moo-solver/internal/config"
	"github.com/MooMaker/moo-solver/internal/domain"
	"github.com/MooMaker/moo-solver/internal/notify"
	"github.com/MooMaker/moo-solver/internal/solver"
	"github.com/MooMaker/moo-solver/internal/store/postgres"
)

// Dependencies bundles every collaborator the server needs. It is constructed
// by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Solver          *solver.Solver
	Guard           *solver.Guard // non-nil only when the in-process guard is used
	SettlementStore domain.SettlementStore
	Archiver        domain.AuctionArchiver
	RateLimiter     domain.RateLimiter
	Notifier        *notify.Notifier
}

// idleStrategy never matches. Used when no pair strategy is configured, so
// the server still answers every round with an empty settlement.
type idleStrategy struct{}

func (idleStrategy) Match(ctx context.Context, auction *domain.BatchAuction) (solver.Decision, error) {
	return solver.Decision{}, nil
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (optional settlement audit store) ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.SettlementStore = postgres.NewSettlementStore(pgClient.Pool())
	}

	// --- Redis (optional shared execution state + rate limiter) ---
	var state solver.StateStore
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		state = redis.NewExecutionStateStore(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	} else {
		guard := solver.NewGuard()
		deps.Guard = guard
		state = guard
	}

	// --- S3 blob storage (optional auction archival) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(
			cfg.Notify.DiscordWebhookURL,
			cfg.Notify.Username,
		))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Strategy + solver ---
	strategy, err := buildStrategy(cfg.Solver.Pair)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: strategy: %w", err)
	}

	deps.Solver = solver.New(strategy, state, solver.Config{
		Contract: common.HexToAddress(cfg.Ethereum.SettlementContract),
		GuardTTL: cfg.Solver.GuardTTL.Duration,
	}, logger)

	return deps, cleanup, nil
}

// buildStrategy parses the pair strategy configuration. An unconfigured pair
// yields the idle strategy.
func buildStrategy(p config.PairConfig) (solver.Strategy, error) {
	if p.TokenIn == "" && p.TokenOut == "" {
		return idleStrategy{}, nil
	}

	amountIn, err := domain.ParseU256(p.AmountIn)
	if err != nil {
		return nil, fmt.Errorf("amount_in: %w", err)
	}
	amountOut, err := domain.ParseU256(p.AmountOut)
	if err != nil {
		return nil, fmt.Errorf("amount_out: %w", err)
	}

	strategy := &solver.PairStrategy{
		TokenIn:   common.HexToAddress(p.TokenIn),
		TokenOut:  common.HexToAddress(p.TokenOut),
		AmountIn:  amountIn.Big(),
		AmountOut: amountOut.Big(),
		Maker:     common.HexToAddress(p.Maker),
		ValidTo:   p.ValidTo,
	}

	if p.FeeAmount != "" {
		fee, err := domain.ParseU256(p.FeeAmount)
		if err != nil {
			return nil, fmt.Errorf("fee_amount: %w", err)
		}
		strategy.FeeAmount = fee.Big()
	}
	if p.UID != "" {
		uid, err := hexutil.Decode(p.UID)
		if err != nil {
			return nil, fmt.Errorf("uid: %w", err)
		}
		strategy.UID = uid
	}
	if p.Signature != "" {
		sig, err := hexutil.Decode(p.Signature)
		if err != nil {
			return nil, fmt.Errorf("signature: %w", err)
		}
		strategy.Signature = sig
	}

	return strategy, nil
}
