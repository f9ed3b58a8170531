package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	s3blob "github.com/archithvenkatesh/arbitrage-bot/internal/blob/s3"
	"github.com/archithvenkatesh/arbitrage-bot/internal/cache/redis"
	"github.com/archithvenkatesh/arbitrage-bot/internal/config"
	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/embed"
	"github.com/archithvenkatesh/arbitrage-bot/internal/notify"
	"github.com/archithvenkatesh/arbitrage-bot/internal/platform/kalshi"
	"github.com/archithvenkatesh/arbitrage-bot/internal/platform/polymarket"
	"github.com/archithvenkatesh/arbitrage-bot/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	// Venue clients
	Kalshi     domain.MarketProvider
	Polymarket domain.MarketProvider

	// Embeddings
	Embedder domain.Embedder

	// Redis
	VectorIndex domain.VectorIndex
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Stores
	MatchStore       domain.MatchStore
	OpportunityStore domain.OpportunityStore

	// Blob storage
	BlobWriter domain.BlobWriter

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that must
// be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Venue clients ---
	kalshiClient := kalshi.NewClient(kalshi.Config{
		BaseURL:           cfg.Kalshi.BaseURL,
		ApiKeyID:          cfg.Kalshi.ApiKey,
		PageLimit:         cfg.Kalshi.PageLimit,
		RequestsPerSecond: cfg.Kalshi.RequestsPerSecond,
	})
	if cfg.Kalshi.RsaPrivateKeyPath != "" {
		pemBytes, err := os.ReadFile(cfg.Kalshi.RsaPrivateKeyPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: read kalshi key: %w", err)
		}
		if err := kalshiClient.SetRSAPrivateKey(pemBytes); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: parse kalshi key: %w", err)
		}
	}
	deps.Kalshi = kalshiClient

	deps.Polymarket = polymarket.NewGammaClient(polymarket.Config{
		GammaHost:         cfg.Polymarket.GammaHost,
		PageLimit:         cfg.Polymarket.PageLimit,
		RequestsPerSecond: cfg.Polymarket.RequestsPerSecond,
	})

	// --- Embeddings (optional) ---
	if cfg.Embedding.Enabled {
		deps.Embedder = embed.NewClient(embed.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    cfg.Embedding.ApiKey,
			Model:     cfg.Embedding.Model,
			BatchSize: cfg.Embedding.BatchSize,
		})
	}

	// --- Redis ---
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

	deps.VectorIndex = redis.NewVectorIndex(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- PostgreSQL ---
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

	pool := pgClient.Pool()
	deps.MatchStore = postgres.NewMatchStore(pool)
	deps.OpportunityStore = postgres.NewOpportunityStore(pool)

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         true,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	// --- Notifications ---
	if cfg.Notify.Enabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramBotToken != "" && cfg.Notify.TelegramChatID != "" {
			senders = append(senders, notify.NewTelegramSender(
				cfg.Notify.TelegramBotToken,
				cfg.Notify.TelegramChatID,
			))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	return deps, cleanup, nil
}
