// Package service wires the matching and arbitrage algorithms to the stores,
// index, and signal bus. The pipeline and HTTP server both call through this
// layer.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/matching"
)

// MatchService produces matched pairs from venue market snapshots and serves
// recorded pairs back out.
type MatchService struct {
	matcher       *matching.Matcher
	index         domain.VectorIndex
	store         domain.MatchStore
	minSimilarity float64
	logger        *slog.Logger
}

// NewMatchService creates a MatchService. index may be nil when embeddings
// are disabled; matching then degrades to lexical mode.
func NewMatchService(
	matcher *matching.Matcher,
	index domain.VectorIndex,
	store domain.MatchStore,
	minSimilarity float64,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		matcher:       matcher,
		index:         index,
		store:         store,
		minSimilarity: minSimilarity,
		logger:        logger.With(slog.String("component", "match_service")),
	}
}

// MatchSnapshot matches the two venue snapshots against each other using
// whatever vectors the index currently holds. It fails fast with
// domain.ErrIndexRebuilding while the index is being repopulated rather than
// matching against a half-built vector set.
func (s *MatchService) MatchSnapshot(ctx context.Context, kalshi, polymarket []domain.Market) ([]domain.MatchedPair, error) {
	vectors, err := s.vectors(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrIndexRebuilding) {
			return nil, err
		}
		// A degraded index is not fatal: the scorer chain falls back to
		// lexical matching when no vector is available.
		s.logger.WarnContext(ctx, "vector lookup failed, matching lexically",
			slog.String("error", err.Error()),
		)
		vectors = nil
	}

	pairs := s.matcher.FindMatches(ctx, kalshi, polymarket, vectors, s.minSimilarity)

	s.logger.InfoContext(ctx, "snapshot matched",
		slog.Int("kalshi_markets", len(kalshi)),
		slog.Int("polymarket_markets", len(polymarket)),
		slog.Int("pairs", len(pairs)),
	)
	return pairs, nil
}

// vectors loads every stored embedding keyed by market ID.
func (s *MatchService) vectors(ctx context.Context) (map[string][]float32, error) {
	if s.index == nil {
		return nil, nil
	}

	entries, err := s.index.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	vectors := make(map[string][]float32, len(entries))
	for _, e := range entries {
		vectors[e.ID] = e.Vector
	}
	return vectors, nil
}

// RecordPass persists all pairs from one scan pass.
func (s *MatchService) RecordPass(ctx context.Context, passID string, pairs []domain.MatchedPair) error {
	if err := s.store.InsertBatch(ctx, passID, pairs); err != nil {
		return fmt.Errorf("match_service: record pass %s: %w", passID, err)
	}
	return nil
}

// LatestMatches returns the pairs recorded by the most recent scan pass. It
// returns domain.ErrNotFound when no pass has completed yet.
func (s *MatchService) LatestMatches(ctx context.Context) (string, []domain.MatchedPair, error) {
	passID, err := s.store.LatestPassID(ctx)
	if err != nil {
		return "", nil, err
	}
	pairs, err := s.store.ListByPass(ctx, passID)
	if err != nil {
		return "", nil, fmt.Errorf("match_service: list pass %s: %w", passID, err)
	}
	return passID, pairs, nil
}
