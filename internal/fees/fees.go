// Package fees implements the venue fee models. Both cost functions are
// deterministic and side-effect free; the rate constants are explicit inputs
// rather than ambient configuration.
package fees

import (
	"math"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// Tier selects the Kalshi fee schedule: taker orders remove liquidity and pay
// the full rate, maker orders provide it and pay the reduced rate.
type Tier string

const (
	TierTaker Tier = "taker"
	TierMaker Tier = "maker"
)

// Schedule holds the venue fee rates. Defaults match the published schedules;
// all three are overridable from configuration.
type Schedule struct {
	KalshiTakerRate      float64
	KalshiMakerRate      float64
	PolymarketProfitRate float64
}

// DefaultSchedule returns the published fee rates.
func DefaultSchedule() Schedule {
	return Schedule{
		KalshiTakerRate:      0.07,
		KalshiMakerRate:      0.0175,
		PolymarketProfitRate: 0.02,
	}
}

// KalshiFee computes Kalshi's percentage-of-variance fee,
// ceil(rate·contracts·price·(1−price)·100)/100, rounded up to the cent.
func (s Schedule) KalshiFee(contracts, price float64, tier Tier) float64 {
	rate := s.KalshiTakerRate
	if tier == TierMaker {
		rate = s.KalshiMakerRate
	}
	raw := rate * contracts * price * (1 - price)
	return ceilCents(raw)
}

// ceilCents rounds a dollar amount up to the nearest cent. The small epsilon
// keeps float noise from pushing an exact cent value over the boundary
// (0.07·100·0.3·0.7 evaluates to 1.4700000000000002 in float64, which must
// still round to 1.47, not 1.48).
func ceilCents(v float64) float64 {
	return math.Ceil(v*100-1e-9) / 100
}

// KalshiCost returns the full cost breakdown of buying contracts at price on
// Kalshi. MaxPayout is one dollar per contract.
func (s Schedule) KalshiCost(contracts, price float64, tier Tier) domain.CostBreakdown {
	contractCost := contracts * price
	fee := s.KalshiFee(contracts, price, tier)
	return domain.CostBreakdown{
		ContractCost: contractCost,
		Fee:          fee,
		TotalCost:    contractCost + fee,
		MaxPayout:    contracts,
	}
}

// PolymarketFee computes Polymarket's fee on potential profit only:
// max(0, rate·(contracts − contracts·price)).
func (s Schedule) PolymarketFee(contracts, price float64) float64 {
	potentialProfit := contracts - contracts*price
	return math.Max(0, s.PolymarketProfitRate*potentialProfit)
}

// PolymarketCost returns the full cost breakdown of buying contracts at price
// on Polymarket.
func (s Schedule) PolymarketCost(contracts, price float64) domain.CostBreakdown {
	contractCost := contracts * price
	fee := s.PolymarketFee(contracts, price)
	return domain.CostBreakdown{
		ContractCost: contractCost,
		Fee:          fee,
		TotalCost:    contractCost + fee,
		MaxPayout:    contracts,
	}
}
