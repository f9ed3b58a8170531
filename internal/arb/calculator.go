// Package arb evaluates matched pairs for guaranteed cross-venue profit.
package arb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/fees"
)

// Calculator evaluates both cross-venue buy combinations for a matched pair
// and keeps the better profitable one. It has no hidden state and may be
// called repeatedly with different investment amounts for the same pair.
type Calculator struct {
	schedule fees.Schedule
	tier     fees.Tier
}

// NewCalculator creates a Calculator using the given fee schedule. tier
// selects the Kalshi fee tier applied to every evaluation.
func NewCalculator(schedule fees.Schedule, tier fees.Tier) *Calculator {
	return &Calculator{schedule: schedule, tier: tier}
}

// Compute evaluates both combinations, (Kalshi yes + Polymarket no) and
// (Kalshi no + Polymarket yes), at the given investment and returns the one
// with the higher net profit. ok is false when neither combination clears
// fees; a non-profitable pair yields no opportunity, never a zero or
// negative record. Pairs with a PriceMissing leg yield no opportunity
// either: a defaulted neutral price cannot ground a guaranteed payout.
func (c *Calculator) Compute(pair domain.MatchedPair, investment float64) (domain.Opportunity, bool) {
	if investment <= 0 {
		return domain.Opportunity{}, false
	}
	if pair.Kalshi.PriceMissing || pair.Polymarket.PriceMissing {
		return domain.Opportunity{}, false
	}

	a, aOK := c.evaluate(pair, domain.OutcomeYes, pair.Kalshi.YesPrice, domain.OutcomeNo, pair.Polymarket.NoPrice, investment)
	b, bOK := c.evaluate(pair, domain.OutcomeNo, pair.Kalshi.NoPrice, domain.OutcomeYes, pair.Polymarket.YesPrice, investment)

	best, ok := pickBest(a, aOK, b, bOK)
	if !ok {
		return domain.Opportunity{}, false
	}
	best.ID = uuid.New().String()
	best.DetectedAt = time.Now().UTC()
	return best, true
}

// evaluate prices one combination: buy kalshiOutcome at kalshiPrice and
// polyOutcome at polyPrice, holding equal contract counts on both legs so the
// payout is guaranteed regardless of outcome.
//
// The allocation starts from the naive equal-contract split
// investment/(p1+p2) and, when fees push the total over budget, applies a
// single proportional rescale. This converges within cent-rounding because
// both venue cost functions are linear in contract count at fixed prices; a
// non-linear fee formula would require replacing this with an iterative
// solver.
func (c *Calculator) evaluate(
	pair domain.MatchedPair,
	kalshiOutcome domain.Outcome, kalshiPrice float64,
	polyOutcome domain.Outcome, polyPrice float64,
	investment float64,
) (domain.Opportunity, bool) {
	if kalshiPrice <= 0 || polyPrice <= 0 {
		return domain.Opportunity{}, false
	}

	contracts := investment / (kalshiPrice + polyPrice)
	kCost := c.schedule.KalshiCost(contracts, kalshiPrice, c.tier)
	pCost := c.schedule.PolymarketCost(contracts, polyPrice)

	if total := kCost.TotalCost + pCost.TotalCost; total > investment {
		contracts *= investment / total
		kCost = c.schedule.KalshiCost(contracts, kalshiPrice, c.tier)
		pCost = c.schedule.PolymarketCost(contracts, polyPrice)
	}

	totalCost := kCost.TotalCost + pCost.TotalCost
	netProfit := contracts - totalCost
	if netProfit <= 0 {
		return domain.Opportunity{}, false
	}

	return domain.Opportunity{
		Pair: pair,
		KalshiLeg: domain.Leg{
			Venue:     domain.VenueKalshi,
			MarketID:  pair.Kalshi.ID,
			Outcome:   kalshiOutcome,
			Price:     kalshiPrice,
			Contracts: contracts,
			Cost:      kCost,
		},
		PolymarketLeg: domain.Leg{
			Venue:     domain.VenuePolymarket,
			MarketID:  pair.Polymarket.ID,
			Outcome:   polyOutcome,
			Price:     polyPrice,
			Contracts: contracts,
			Cost:      pCost,
		},
		TotalCost:        totalCost,
		GuaranteedPayout: contracts,
		NetProfit:        netProfit,
		ProfitPercent:    netProfit / totalCost * 100,
	}, true
}

func pickBest(a domain.Opportunity, aOK bool, b domain.Opportunity, bOK bool) (domain.Opportunity, bool) {
	switch {
	case aOK && bOK:
		if b.NetProfit > a.NetProfit {
			return b, true
		}
		return a, true
	case aOK:
		return a, true
	case bOK:
		return b, true
	default:
		return domain.Opportunity{}, false
	}
}

// Rank evaluates every pair at the given investment and returns the
// profitable opportunities sorted descending by profit percent. Pairs with no
// profitable combination are omitted.
func (c *Calculator) Rank(pairs []domain.MatchedPair, investment float64) []domain.Opportunity {
	opps := make([]domain.Opportunity, 0, len(pairs))
	for _, pair := range pairs {
		if opp, ok := c.Compute(pair, investment); ok {
			opps = append(opps, opp)
		}
	}
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ProfitPercent > opps[j].ProfitPercent
	})
	return opps
}
