package domain

import "time"

// Outcome is the side of a binary market being bought.
type Outcome string

const (
	OutcomeYes Outcome = "yes"
	OutcomeNo  Outcome = "no"
)

// CostBreakdown is the full cost of holding some number of contracts at a
// price on one venue, including the venue fee. MaxPayout is the redemption
// value if the bought outcome wins (one dollar per contract).
type CostBreakdown struct {
	ContractCost float64 `json:"contract_cost"`
	Fee          float64 `json:"fee"`
	TotalCost    float64 `json:"total_cost"`
	MaxPayout    float64 `json:"max_payout"`
}

// Leg is one side of a two-venue arbitrage: an outcome bought on one venue.
type Leg struct {
	Venue     Venue         `json:"venue"`
	MarketID  string        `json:"market_id"`
	Outcome   Outcome       `json:"outcome"`
	Price     float64       `json:"price"`
	Contracts float64       `json:"contracts"`
	Cost      CostBreakdown `json:"cost"`
}

// Opportunity is a profitable cross-venue combination for a matched pair.
// Both legs hold the same contract count, so the payout is guaranteed
// regardless of outcome. NetProfit is strictly positive; combinations that
// do not clear fees are never surfaced as opportunities.
type Opportunity struct {
	ID               string      `json:"id"`
	Pair             MatchedPair `json:"pair"`
	KalshiLeg        Leg         `json:"kalshi_leg"`
	PolymarketLeg    Leg         `json:"polymarket_leg"`
	TotalCost        float64     `json:"total_cost"`
	GuaranteedPayout float64     `json:"guaranteed_payout"`
	NetProfit        float64     `json:"net_profit"`
	ProfitPercent    float64     `json:"profit_percent"`
	DetectedAt       time.Time   `json:"detected_at"`
}
