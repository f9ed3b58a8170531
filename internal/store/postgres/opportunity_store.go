package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// OpportunityStore implements domain.OpportunityStore using PostgreSQL.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates an OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Insert stores one detected opportunity.
func (s *OpportunityStore) Insert(ctx context.Context, passID string, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			id, pass_id,
			kalshi_market_id, kalshi_outcome, kalshi_price, kalshi_contracts, kalshi_cost,
			polymarket_market_id, polymarket_outcome, polymarket_price, polymarket_contracts, polymarket_cost,
			similarity, total_cost, guaranteed_payout, net_profit, profit_percent, detected_at
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18
		)`

	_, err := s.pool.Exec(ctx, query,
		opp.ID, passID,
		opp.KalshiLeg.MarketID, string(opp.KalshiLeg.Outcome), opp.KalshiLeg.Price,
		opp.KalshiLeg.Contracts, opp.KalshiLeg.Cost.TotalCost,
		opp.PolymarketLeg.MarketID, string(opp.PolymarketLeg.Outcome), opp.PolymarketLeg.Price,
		opp.PolymarketLeg.Contracts, opp.PolymarketLeg.Cost.TotalCost,
		opp.Pair.Similarity, opp.TotalCost, opp.GuaranteedPayout,
		opp.NetProfit, opp.ProfitPercent, opp.DetectedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert opportunity %s: %w", opp.ID, err)
	}
	return nil
}

// ListRecent returns the most recent opportunities ordered by detection time.
func (s *OpportunityStore) ListRecent(ctx context.Context, limit int) ([]domain.Opportunity, error) {
	query := `
		SELECT id,
		       kalshi_market_id, kalshi_outcome, kalshi_price, kalshi_contracts, kalshi_cost,
		       polymarket_market_id, polymarket_outcome, polymarket_price, polymarket_contracts, polymarket_cost,
		       similarity, total_cost, guaranteed_payout, net_profit, profit_percent, detected_at
		FROM opportunities
		ORDER BY detected_at DESC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		var opp domain.Opportunity
		var kalshiOutcome, polyOutcome string
		err := rows.Scan(
			&opp.ID,
			&opp.KalshiLeg.MarketID, &kalshiOutcome, &opp.KalshiLeg.Price,
			&opp.KalshiLeg.Contracts, &opp.KalshiLeg.Cost.TotalCost,
			&opp.PolymarketLeg.MarketID, &polyOutcome, &opp.PolymarketLeg.Price,
			&opp.PolymarketLeg.Contracts, &opp.PolymarketLeg.Cost.TotalCost,
			&opp.Pair.Similarity, &opp.TotalCost, &opp.GuaranteedPayout,
			&opp.NetProfit, &opp.ProfitPercent, &opp.DetectedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}

		opp.KalshiLeg.Venue = domain.VenueKalshi
		opp.KalshiLeg.Outcome = domain.Outcome(kalshiOutcome)
		opp.PolymarketLeg.Venue = domain.VenuePolymarket
		opp.PolymarketLeg.Outcome = domain.Outcome(polyOutcome)

		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate opportunities: %w", err)
	}
	return opps, nil
}

// Compile-time interface check.
var _ domain.OpportunityStore = (*OpportunityStore)(nil)
