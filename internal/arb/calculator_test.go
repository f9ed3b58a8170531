package arb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/fees"
)

func pairWithPrices(kalshiYes, polyYes float64) domain.MatchedPair {
	return domain.MatchedPair{
		Kalshi: domain.Market{
			ID: "k1", Venue: domain.VenueKalshi,
			YesPrice: kalshiYes, NoPrice: 1 - kalshiYes,
		},
		Polymarket: domain.Market{
			ID: "p1", Venue: domain.VenuePolymarket,
			YesPrice: polyYes, NoPrice: 1 - polyYes,
		},
		Similarity: 0.9,
		Confidence: domain.ConfidenceHigh,
	}
}

func TestCompute_EndToEndRescale(t *testing.T) {
	// Kalshi NO at 0.21, Polymarket YES at 0.75, investment 100. Naive
	// allocation is 100/0.96 ≈ 104.17 contracts; fees push the first-pass
	// total to ≈101.7, so one rescale lands at ≈102.4 contracts and a net
	// profit of ≈2.4 (≈2.4%).
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	pair := pairWithPrices(0.79, 0.75)

	opp, ok := calc.Compute(pair, 100)
	require.True(t, ok)

	assert.Equal(t, domain.OutcomeNo, opp.KalshiLeg.Outcome)
	assert.Equal(t, domain.OutcomeYes, opp.PolymarketLeg.Outcome)
	assert.InDelta(t, 102.4, opp.GuaranteedPayout, 0.1)
	assert.InDelta(t, 100.0, opp.TotalCost, 0.05)
	assert.InDelta(t, 2.4, opp.NetProfit, 0.1)
	assert.InDelta(t, 2.4, opp.ProfitPercent, 0.1)
	assert.Equal(t, opp.KalshiLeg.Contracts, opp.PolymarketLeg.Contracts)
}

func TestCompute_NoOpportunityWhenPricesSumToOne(t *testing.T) {
	// Both cross-venue combinations cost 1.0 per contract before fees, so
	// neither can clear fees.
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	pair := pairWithPrices(0.6, 0.6)

	_, ok := calc.Compute(pair, 100)
	assert.False(t, ok)
}

func TestCompute_PicksBetterCombination(t *testing.T) {
	// Kalshi YES 0.30 + Polymarket NO 0.60 sums to 0.90; the mirror sums to
	// 1.10. Only the first is profitable.
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	pair := pairWithPrices(0.30, 0.40)

	opp, ok := calc.Compute(pair, 100)
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeYes, opp.KalshiLeg.Outcome)
	assert.Equal(t, domain.OutcomeNo, opp.PolymarketLeg.Outcome)
	assert.Greater(t, opp.NetProfit, 0.0)
}

func TestCompute_EqualContractsInvariant(t *testing.T) {
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	opp, ok := calc.Compute(pairWithPrices(0.79, 0.75), 250)
	require.True(t, ok)
	assert.Equal(t, opp.KalshiLeg.Contracts, opp.PolymarketLeg.Contracts)
	assert.Equal(t, opp.GuaranteedPayout, opp.KalshiLeg.Contracts)
}

func TestCompute_NoOpportunityFromMissingPrice(t *testing.T) {
	// A Polymarket payload with no parseable price defaults to the neutral
	// 0.5; against Kalshi yes at 0.30 the naive sum would be 0.80 and look
	// like a 20%+ edge. The defaulted leg must never surface as an
	// opportunity.
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	pair := pairWithPrices(0.30, 0.50)
	pair.Polymarket = pair.Polymarket.WithPrice(0)
	require.True(t, pair.Polymarket.PriceMissing)

	_, ok := calc.Compute(pair, 100)
	assert.False(t, ok)
	assert.Empty(t, calc.Rank([]domain.MatchedPair{pair}, 100))
}

func TestCompute_ZeroInvestment(t *testing.T) {
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	_, ok := calc.Compute(pairWithPrices(0.79, 0.75), 0)
	assert.False(t, ok)
}

func TestCompute_Repeatable(t *testing.T) {
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	pair := pairWithPrices(0.79, 0.75)

	first, ok1 := calc.Compute(pair, 100)
	second, ok2 := calc.Compute(pair, 100)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, first.NetProfit, second.NetProfit)
	assert.Equal(t, first.TotalCost, second.TotalCost)
}

func TestRank_SortedByProfitPercent(t *testing.T) {
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	pairs := []domain.MatchedPair{
		pairWithPrices(0.6, 0.6),   // no opportunity
		pairWithPrices(0.79, 0.75), // ~2.4%
		pairWithPrices(0.30, 0.40), // ~9%
	}

	opps := calc.Rank(pairs, 100)
	require.Len(t, opps, 2)
	assert.GreaterOrEqual(t, opps[0].ProfitPercent, opps[1].ProfitPercent)
	// The 0.30/0.40 pair is the wider edge and must rank first.
	assert.Equal(t, domain.OutcomeYes, opps[0].KalshiLeg.Outcome)
}

func TestRank_Empty(t *testing.T) {
	calc := NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	assert.Empty(t, calc.Rank(nil, 100))
}
