package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/archithvenkatesh/arbitrage-bot/internal/arb"
	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// ChannelOpportunities is the signal bus channel opportunity events are
// published on.
const ChannelOpportunities = "arbbot:opportunities"

// ArbService evaluates matched pairs for guaranteed-profit opportunities and
// records the ones it finds.
type ArbService struct {
	calc       *arb.Calculator
	store      domain.OpportunityStore
	bus        domain.SignalBus
	investment float64
	logger     *slog.Logger
}

// NewArbService creates an ArbService. bus may be nil when no API surface is
// running.
func NewArbService(
	calc *arb.Calculator,
	store domain.OpportunityStore,
	bus domain.SignalBus,
	investment float64,
	logger *slog.Logger,
) *ArbService {
	return &ArbService{
		calc:       calc,
		store:      store,
		bus:        bus,
		investment: investment,
		logger:     logger.With(slog.String("component", "arb_service")),
	}
}

// ComputeArbitrage evaluates one matched pair at the configured default
// investment. investment <= 0 selects the default.
func (s *ArbService) ComputeArbitrage(pair domain.MatchedPair, investment float64) (domain.Opportunity, bool) {
	if investment <= 0 {
		investment = s.investment
	}
	return s.calc.Compute(pair, investment)
}

// RankOpportunities evaluates every pair and returns the profitable ones
// ordered by descending profit percent.
func (s *ArbService) RankOpportunities(pairs []domain.MatchedPair, investment float64) []domain.Opportunity {
	if investment <= 0 {
		investment = s.investment
	}
	return s.calc.Rank(pairs, investment)
}

// Record persists an opportunity and publishes it to the signal bus for
// websocket clients and the notifier.
func (s *ArbService) Record(ctx context.Context, passID string, opp domain.Opportunity) error {
	if err := s.store.Insert(ctx, passID, opp); err != nil {
		return fmt.Errorf("arb_service: insert opportunity: %w", err)
	}

	s.logger.InfoContext(ctx, "opportunity recorded",
		slog.String("opp_id", opp.ID),
		slog.String("pass_id", passID),
		slog.Float64("net_profit", opp.NetProfit),
		slog.Float64("profit_percent", opp.ProfitPercent),
	)

	if s.bus == nil {
		return nil
	}

	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("arb_service: marshal opportunity: %w", err)
	}
	if err := s.bus.Publish(ctx, ChannelOpportunities, payload); err != nil {
		// Publishing is best-effort; the opportunity is already persisted.
		s.logger.WarnContext(ctx, "publish opportunity failed",
			slog.String("opp_id", opp.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// ListRecent returns the most recently detected opportunities.
func (s *ArbService) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	opps, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("arb_service: list recent: %w", err)
	}
	return opps, nil
}
