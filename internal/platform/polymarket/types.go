package polymarket

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// APIMarket represents a market as returned by the Gamma API. Numeric fields
// arrive as strings; outcomePrices is a JSON-encoded array inside a string.
type APIMarket struct {
	ID            string  `json:"id"`
	Question      string  `json:"question"`
	Slug          string  `json:"slug"`
	Active        bool    `json:"active"`
	Closed        bool    `json:"closed"`
	Volume24hr    float64 `json:"volume24hr"`
	Outcomes      string  `json:"outcomes"`      // e.g. ["Yes","No"]
	OutcomePrices string  `json:"outcomePrices"` // e.g. ["0.72","0.28"]
}

// yesPrice decodes the outcomePrices payload and returns the price of the
// "Yes" outcome. ok is false when the payload is missing or malformed.
func (m *APIMarket) yesPrice() (float64, bool) {
	if m.OutcomePrices == "" {
		return 0, false
	}

	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil || len(prices) == 0 {
		return 0, false
	}

	// The Yes outcome is first unless the outcomes array says otherwise.
	idx := 0
	var outcomes []string
	if m.Outcomes != "" {
		if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err == nil {
			for i, o := range outcomes {
				if o == "Yes" && i < len(prices) {
					idx = i
					break
				}
			}
		}
	}

	p, err := strconv.ParseFloat(prices[idx], 64)
	if err != nil {
		return 0, false
	}
	return p, true
}

// toDomainMarket maps an API market to the domain model. Markets without a
// parseable price default to the neutral 0.5 and are flagged as PriceMissing.
func (m *APIMarket) toDomainMarket(fetchedAt time.Time) domain.Market {
	dm := domain.Market{
		ID:        m.ID,
		Venue:     domain.VenuePolymarket,
		Title:     m.Question,
		Volume24h: m.Volume24hr,
		Status:    domain.MarketStatusActive,
		FetchedAt: fetchedAt,
	}
	if m.Closed {
		dm.Status = domain.MarketStatusClosed
	}

	yes, ok := m.yesPrice()
	if !ok {
		return dm.WithPrice(0) // flags PriceMissing, neutral 0.5
	}
	return dm.WithPrice(yes)
}
