package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKalshiFee_TakerExactCents(t *testing.T) {
	s := DefaultSchedule()
	// ceil(0.07·100·0.3·0.7·100)/100 = ceil(147)/100 = 1.47
	assert.Equal(t, 1.47, s.KalshiFee(100, 0.3, TierTaker))
}

func TestKalshiFee_RoundsUpToCent(t *testing.T) {
	s := DefaultSchedule()
	// 0.07·10·0.3·0.7 = 0.147 -> 0.15
	assert.Equal(t, 0.15, s.KalshiFee(10, 0.3, TierTaker))
	// 0.07·1·0.5·0.5 = 0.0175 -> 0.02
	assert.Equal(t, 0.02, s.KalshiFee(1, 0.5, TierTaker))
}

func TestKalshiFee_MakerTier(t *testing.T) {
	s := DefaultSchedule()
	// 0.0175·100·0.3·0.7 = 0.3675 -> 0.37
	assert.Equal(t, 0.37, s.KalshiFee(100, 0.3, TierMaker))
}

func TestKalshiCost(t *testing.T) {
	s := DefaultSchedule()
	cost := s.KalshiCost(100, 0.3, TierTaker)
	assert.Equal(t, 30.0, cost.ContractCost)
	assert.Equal(t, 1.47, cost.Fee)
	assert.Equal(t, 31.47, cost.TotalCost)
	assert.Equal(t, 100.0, cost.MaxPayout)
}

func TestPolymarketFee_ProfitOnly(t *testing.T) {
	s := DefaultSchedule()
	// potential profit = 100 - 100·0.75 = 25; fee = 0.02·25 = 0.5
	assert.InDelta(t, 0.5, s.PolymarketFee(100, 0.75), 1e-9)
	// price 1.0 leaves no potential profit.
	assert.Equal(t, 0.0, s.PolymarketFee(100, 1.0))
}

func TestPolymarketCost(t *testing.T) {
	s := DefaultSchedule()
	cost := s.PolymarketCost(100, 0.75)
	assert.InDelta(t, 75.0, cost.ContractCost, 1e-9)
	assert.InDelta(t, 0.5, cost.Fee, 1e-9)
	assert.InDelta(t, 75.5, cost.TotalCost, 1e-9)
	assert.Equal(t, 100.0, cost.MaxPayout)
}

func TestScheduleOverride(t *testing.T) {
	s := Schedule{KalshiTakerRate: 0.05, KalshiMakerRate: 0.01, PolymarketProfitRate: 0.03}
	// 0.05·100·0.3·0.7 = 1.05
	assert.Equal(t, 1.05, s.KalshiFee(100, 0.3, TierTaker))
	assert.InDelta(t, 0.75, s.PolymarketFee(100, 0.75), 1e-9)
}
