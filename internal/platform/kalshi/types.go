package kalshi

// APIMarket represents a market as returned by the Kalshi REST API. Prices
// are in cents (1-99).
type APIMarket struct {
	Ticker         string  `json:"ticker"`
	EventTicker    string  `json:"event_ticker"`
	Title          string  `json:"title"`
	Subtitle       string  `json:"subtitle"`
	Status         string  `json:"status"` // "open", "closed", "settled"
	YesBid         float64 `json:"yes_bid"`
	YesAsk         float64 `json:"yes_ask"`
	NoBid          float64 `json:"no_bid"`
	NoAsk          float64 `json:"no_ask"`
	LastPrice      float64 `json:"last_price"`
	Volume         int64   `json:"volume"`
	Volume24H      int64   `json:"volume_24h"`
	OpenInterest   int64   `json:"open_interest"`
	Category       string  `json:"category"`
	ExpirationTime string  `json:"expiration_time"`
	CloseTime      string  `json:"close_time"`
	Result         string  `json:"result"` // "yes", "no", "" (unsettled)
}

// marketsResponse is the paginated /markets envelope.
type marketsResponse struct {
	Markets []APIMarket `json:"markets"`
	Cursor  string      `json:"cursor"`
}

// midPrice derives a 0..1 yes probability from the quoted bid/ask, falling
// back to the last trade. Returns 0 when the market carries no usable quote.
func (m *APIMarket) midPrice() float64 {
	if m.YesBid > 0 && m.YesAsk > 0 {
		return normalizeCents((m.YesBid + m.YesAsk) / 2)
	}
	if m.LastPrice > 0 {
		return normalizeCents(m.LastPrice)
	}
	return 0
}

// normalizeCents maps Kalshi cent values (0..100) to 0..1 probabilities.
// Values already below 1 are passed through.
func normalizeCents(v float64) float64 {
	if v > 1.0 {
		return v / 100.0
	}
	return v
}
