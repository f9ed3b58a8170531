package domain

import "time"

// Venue identifies one of the two trading platforms whose markets are compared.
type Venue string

const (
	VenueKalshi     Venue = "kalshi"
	VenuePolymarket Venue = "polymarket"
)

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive  MarketStatus = "active"
	MarketStatusClosed  MarketStatus = "closed"
	MarketStatusSettled MarketStatus = "settled"
)

// Market is a binary-outcome proposition on one venue. YesPrice and NoPrice
// always sum to 1. PriceMissing marks records whose venue payload carried no
// parseable price; such markets are priced at the neutral 0.5 but must not be
// treated as genuine 50/50 markets downstream.
type Market struct {
	ID           string       `json:"id"`
	Venue        Venue        `json:"venue"`
	Title        string       `json:"title"`
	YesPrice     float64      `json:"yes_price"`
	NoPrice      float64      `json:"no_price"`
	Volume24h    float64      `json:"volume_24h"`
	Status       MarketStatus `json:"status"`
	PriceMissing bool         `json:"price_missing,omitempty"`
	FetchedAt    time.Time    `json:"fetched_at"`
}

// WithPrice returns a copy of m with YesPrice set and NoPrice derived.
// Prices outside (0,1) are treated as missing and default to neutral 0.5.
func (m Market) WithPrice(yes float64) Market {
	if yes <= 0 || yes >= 1 {
		m.YesPrice = 0.5
		m.NoPrice = 0.5
		m.PriceMissing = true
		return m
	}
	m.YesPrice = yes
	m.NoPrice = 1 - yes
	m.PriceMissing = false
	return m
}
