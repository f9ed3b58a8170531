package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/archithvenkatesh/arbitrage-bot/internal/arb"
	s3blob "github.com/archithvenkatesh/arbitrage-bot/internal/blob/s3"
	"github.com/archithvenkatesh/arbitrage-bot/internal/fees"
	"github.com/archithvenkatesh/arbitrage-bot/internal/matching"
	"github.com/archithvenkatesh/arbitrage-bot/internal/pipeline"
	"github.com/archithvenkatesh/arbitrage-bot/internal/server"
	"github.com/archithvenkatesh/arbitrage-bot/internal/server/handler"
	"github.com/archithvenkatesh/arbitrage-bot/internal/server/ws"
	"github.com/archithvenkatesh/arbitrage-bot/internal/service"
)

// services bundles the wired service layer plus the refresher that drives
// scan passes.
type services struct {
	matchSvc  *service.MatchService
	arbSvc    *service.ArbService
	refresher *pipeline.Refresher
}

// buildServices constructs the matcher, calculator, services, and refresher
// from the wired dependencies.
func (a *App) buildServices(deps *Dependencies) *services {
	chain := matching.NewChain(
		matching.HybridScorer{},
		matching.LexicalScorer{},
		matching.KeywordScorer{},
	)
	matcher := matching.NewMatcher(chain, a.logger)

	schedule := fees.Schedule{
		KalshiTakerRate:      a.cfg.Arbitrage.KalshiTakerRate,
		KalshiMakerRate:      a.cfg.Arbitrage.KalshiMakerRate,
		PolymarketProfitRate: a.cfg.Arbitrage.PolymarketProfitRate,
	}
	calc := arb.NewCalculator(schedule, fees.Tier(a.cfg.Arbitrage.KalshiFeeTier))

	index := deps.VectorIndex
	if deps.Embedder == nil {
		// Without an embedder nothing populates the index; skip vector
		// lookups entirely so matching stays lexical.
		index = nil
	}

	matchSvc := service.NewMatchService(
		matcher, index, deps.MatchStore, a.cfg.Matching.MinSimilarity, a.logger,
	)
	arbSvc := service.NewArbService(
		calc, deps.OpportunityStore, deps.SignalBus, a.cfg.Arbitrage.Investment, a.logger,
	)

	var archive pipeline.PassArchive
	if a.cfg.Pipeline.ArchivePasses && deps.BlobWriter != nil {
		archive = s3blob.NewPassArchiver(deps.BlobWriter, a.cfg.Pipeline.ArchivePrefix)
	}
	var alerter pipeline.Alerter
	if deps.Notifier != nil {
		alerter = deps.Notifier
	}

	refresher := pipeline.NewRefresher(pipeline.RefresherConfig{
		Kalshi:     deps.Kalshi,
		Polymarket: deps.Polymarket,
		Embedder:   deps.Embedder,
		Index:      deps.VectorIndex,
		Locks:      deps.LockManager,
		MatchSvc:   matchSvc,
		ArbSvc:     arbSvc,
		Archive:    archive,
		Alerter:    alerter,
		LockTTL:    a.cfg.Pipeline.IndexLockTTL.Duration,
		Logger:     a.logger,
	})

	return &services{
		matchSvc:  matchSvc,
		arbSvc:    arbSvc,
		refresher: refresher,
	}
}

// ScanMode runs the periodic scan loop with no API surface.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	svcs := a.buildServices(deps)

	err := svcs.refresher.RunLoop(ctx, a.cfg.Pipeline.ScanInterval.Duration)
	if ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("app: scan loop: %w", err)
}

// ServeMode runs the HTTP/WebSocket API over previously recorded passes,
// without the periodic scan loop. POST /api/scan still triggers passes on
// demand.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	svcs := a.buildServices(deps)

	g, ctx := errgroup.WithContext(ctx)
	a.startServer(ctx, g, deps, svcs)

	err := g.Wait()
	if ctx.Err() != nil && err == ctx.Err() {
		return nil
	}
	return err
}

// FullMode runs the scan loop and the API server together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	svcs := a.buildServices(deps)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := svcs.refresher.RunLoop(ctx, a.cfg.Pipeline.ScanInterval.Duration)
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("scan loop: %w", err)
	})

	a.startServer(ctx, g, deps, svcs)

	err := g.Wait()
	if ctx.Err() != nil && err == ctx.Err() {
		return nil
	}
	return err
}

// searchHandler returns the nearest-neighbour search handler, or nil when no
// embedder is configured (the index is never populated in that case).
func (a *App) searchHandler(deps *Dependencies) *handler.SearchHandler {
	if deps.Embedder == nil || deps.VectorIndex == nil {
		return nil
	}
	return handler.NewSearchHandler(deps.Embedder, deps.VectorIndex, a.logger)
}

// startServer adds the HTTP server and WebSocket hub goroutines to the given
// errgroup, plus a shutdown watcher that drains in-flight requests when the
// context is cancelled.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) {
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.logger)
		g.Go(func() error {
			if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
				return fmt.Errorf("ws hub: %w", err)
			}
			return nil
		})
	}

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			APIKey:      a.cfg.Server.APIKey,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(a.logger),
			Matches: handler.NewMatchHandler(svcs.matchSvc, a.logger),
			Arb:     handler.NewArbHandler(svcs.arbSvc, a.logger),
			Scan:    handler.NewScanHandler(svcs.refresher, a.logger),
			Search:  a.searchHandler(deps),
		},
		hub,
		a.logger,
	)

	g.Go(func() error {
		if err := srv.Start(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
}
