// Package pipeline runs the periodic scan pass: fetch both venues, refresh
// the vector index, match, evaluate arbitrage, persist, and archive.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/service"
)

// indexLockKey guards index rebuilds across processes.
const indexLockKey = "index-rebuild"

// PassArchive uploads the results of one completed pass to cold storage.
type PassArchive interface {
	ArchivePass(ctx context.Context, passID string, at time.Time, pairs []domain.MatchedPair, opps []domain.Opportunity) error
}

// Alerter pushes detected opportunities and pass failures to operator
// channels.
type Alerter interface {
	NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error
	NotifyPassFailure(ctx context.Context, passErr error) error
}

// Refresher drives scan passes. Optional collaborators (embedder, index,
// locks, archiver, alerter) may be nil; the pass degrades gracefully without
// them.
type Refresher struct {
	kalshi     domain.MarketProvider
	polymarket domain.MarketProvider
	embedder   domain.Embedder
	index      domain.VectorIndex
	locks      domain.LockManager
	matchSvc   *service.MatchService
	arbSvc     *service.ArbService
	archive    PassArchive
	alerter    Alerter
	lockTTL    time.Duration
	logger     *slog.Logger
}

// RefresherConfig bundles the Refresher's collaborators.
type RefresherConfig struct {
	Kalshi     domain.MarketProvider
	Polymarket domain.MarketProvider
	Embedder   domain.Embedder
	Index      domain.VectorIndex
	Locks      domain.LockManager
	MatchSvc   *service.MatchService
	ArbSvc     *service.ArbService
	Archive    PassArchive
	Alerter    Alerter
	LockTTL    time.Duration
	Logger     *slog.Logger
}

// NewRefresher creates a Refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}
	return &Refresher{
		kalshi:     cfg.Kalshi,
		polymarket: cfg.Polymarket,
		embedder:   cfg.Embedder,
		index:      cfg.Index,
		locks:      cfg.Locks,
		matchSvc:   cfg.MatchSvc,
		arbSvc:     cfg.ArbSvc,
		archive:    cfg.Archive,
		alerter:    cfg.Alerter,
		lockTTL:    lockTTL,
		logger:     cfg.Logger.With(slog.String("component", "refresher")),
	}
}

// PassResult summarizes one completed scan pass.
type PassResult struct {
	PassID        string               `json:"pass_id"`
	Kalshi        int                  `json:"kalshi_markets"`
	Polymarket    int                  `json:"polymarket_markets"`
	Pairs         []domain.MatchedPair `json:"pairs"`
	Opportunities []domain.Opportunity `json:"opportunities"`
	StartedAt     time.Time            `json:"started_at"`
	Duration      time.Duration        `json:"duration"`
}

// RunPass executes one full scan pass. A venue fetch failure is fatal for
// the pass; no partial market list is matched. Persistence and archival
// failures are logged but do not abort the pass once matching has completed.
func (r *Refresher) RunPass(ctx context.Context) (PassResult, error) {
	started := time.Now().UTC()
	passID := uuid.New().String()
	logger := r.logger.With(slog.String("pass_id", passID))

	logger.InfoContext(ctx, "scan pass starting")

	kalshi, polymarket, err := r.fetchSnapshots(ctx)
	if err != nil {
		return PassResult{}, fmt.Errorf("pipeline: pass %s: %w", passID, err)
	}

	logger.InfoContext(ctx, "snapshots fetched",
		slog.Int("kalshi_markets", len(kalshi)),
		slog.Int("polymarket_markets", len(polymarket)),
	)

	if r.embedder != nil && r.index != nil {
		if err := r.rebuildIndex(ctx, logger, kalshi, polymarket); err != nil {
			// Stale vectors are still usable; matching also degrades to
			// lexical mode when vectors are missing entirely.
			logger.WarnContext(ctx, "index rebuild failed, using stale vectors",
				slog.String("error", err.Error()),
			)
		}
	}

	pairs, err := r.matchSvc.MatchSnapshot(ctx, kalshi, polymarket)
	if err != nil {
		return PassResult{}, fmt.Errorf("pipeline: pass %s: match: %w", passID, err)
	}

	opps := r.arbSvc.RankOpportunities(pairs, 0)

	if err := r.matchSvc.RecordPass(ctx, passID, pairs); err != nil {
		logger.ErrorContext(ctx, "record pass failed", slog.String("error", err.Error()))
	}
	for _, opp := range opps {
		if err := r.arbSvc.Record(ctx, passID, opp); err != nil {
			logger.ErrorContext(ctx, "record opportunity failed",
				slog.String("opp_id", opp.ID),
				slog.String("error", err.Error()),
			)
		}
		// Operator alerts are reserved for high-confidence pairs; lower
		// tiers still persist for the API to surface.
		if r.alerter != nil && opp.Pair.Confidence == domain.ConfidenceHigh {
			if err := r.alerter.NotifyOpportunity(ctx, opp); err != nil {
				logger.WarnContext(ctx, "opportunity alert failed",
					slog.String("opp_id", opp.ID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if r.archive != nil {
		if err := r.archive.ArchivePass(ctx, passID, started, pairs, opps); err != nil {
			logger.ErrorContext(ctx, "archive pass failed", slog.String("error", err.Error()))
		}
	}

	result := PassResult{
		PassID:        passID,
		Kalshi:        len(kalshi),
		Polymarket:    len(polymarket),
		Pairs:         pairs,
		Opportunities: opps,
		StartedAt:     started,
		Duration:      time.Since(started),
	}

	logger.InfoContext(ctx, "scan pass complete",
		slog.Int("pairs", len(pairs)),
		slog.Int("opportunities", len(opps)),
		slog.Duration("duration", result.Duration),
	)
	return result, nil
}

// fetchSnapshots fetches both venues concurrently. Either venue failing
// fails the fetch.
func (r *Refresher) fetchSnapshots(ctx context.Context) ([]domain.Market, []domain.Market, error) {
	var kalshi, polymarket []domain.Market

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		markets, err := r.kalshi.FetchMarkets(ctx)
		if err != nil {
			return fmt.Errorf("fetch kalshi: %w", err)
		}
		kalshi = markets
		return nil
	})
	g.Go(func() error {
		markets, err := r.polymarket.FetchMarkets(ctx)
		if err != nil {
			return fmt.Errorf("fetch polymarket: %w", err)
		}
		polymarket = markets
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return kalshi, polymarket, nil
}

// rebuildIndex re-embeds both snapshots and swaps the vector index contents
// under the rebuild flag, so concurrent readers fail fast instead of seeing
// a half-populated index. The distributed lock keeps two processes from
// rebuilding at once.
func (r *Refresher) rebuildIndex(ctx context.Context, logger *slog.Logger, kalshi, polymarket []domain.Market) error {
	markets := make([]domain.Market, 0, len(kalshi)+len(polymarket))
	markets = append(markets, kalshi...)
	markets = append(markets, polymarket...)

	titles := make([]string, len(markets))
	for i, m := range markets {
		titles[i] = m.Title
	}

	// Embed before taking the lock; the HTTP round trips dominate and the
	// flag only needs to cover the index swap.
	vectors, err := r.embedder.Embed(ctx, titles)
	if err != nil {
		return fmt.Errorf("embed titles: %w", err)
	}

	if r.locks != nil {
		unlock, err := r.locks.Acquire(ctx, indexLockKey, r.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				logger.InfoContext(ctx, "index rebuild already in progress elsewhere")
				return nil
			}
			return fmt.Errorf("acquire index lock: %w", err)
		}
		defer unlock()
	}

	if err := r.index.SetRebuilding(ctx, true, r.lockTTL); err != nil {
		return fmt.Errorf("set rebuilding flag: %w", err)
	}
	defer func() {
		if err := r.index.SetRebuilding(ctx, false, 0); err != nil {
			logger.ErrorContext(ctx, "clear rebuilding flag failed",
				slog.String("error", err.Error()),
			)
		}
	}()

	if err := r.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}
	for i, m := range markets {
		entry := domain.IndexEntry{
			ID:     m.ID,
			Vector: vectors[i],
			Metadata: map[string]string{
				"venue": string(m.Venue),
				"title": m.Title,
			},
		}
		if err := r.index.Upsert(ctx, entry); err != nil {
			return fmt.Errorf("upsert vector %s: %w", m.ID, err)
		}
	}

	logger.InfoContext(ctx, "vector index rebuilt", slog.Int("entries", len(markets)))
	return nil
}

// RunLoop runs a pass immediately, then on every tick until ctx is
// cancelled. A failed pass is logged and the loop continues.
func (r *Refresher) RunLoop(ctx context.Context, interval time.Duration) error {
	if _, err := r.RunPass(ctx); err != nil {
		r.reportFailure(ctx, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RunPass(ctx); err != nil {
				r.reportFailure(ctx, err)
			}
		}
	}
}

func (r *Refresher) reportFailure(ctx context.Context, passErr error) {
	r.logger.ErrorContext(ctx, "scan pass failed", slog.String("error", passErr.Error()))
	if r.alerter == nil || ctx.Err() != nil {
		return
	}
	if err := r.alerter.NotifyPassFailure(ctx, passErr); err != nil {
		r.logger.WarnContext(ctx, "pass failure alert failed", slog.String("error", err.Error()))
	}
}
