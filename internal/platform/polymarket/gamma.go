// Package polymarket implements the Polymarket venue fetch collaborator via
// the Gamma REST API.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which provides
// market discovery and metadata.
type GammaClient struct {
	baseURL    string
	pageLimit  int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// Config holds client construction parameters.
type Config struct {
	GammaHost         string
	PageLimit         int
	RequestsPerSecond float64
}

// NewGammaClient creates a new Gamma API client.
//
// GammaHost is the API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(cfg Config) *GammaClient {
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = 200
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &GammaClient{
		baseURL:   cfg.GammaHost,
		pageLimit: limit,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Venue identifies this provider.
func (g *GammaClient) Venue() domain.Venue { return domain.VenuePolymarket }

// FetchMarkets walks the offset-paginated /markets endpoint and returns every
// active market as a domain.Market. Any transport or decode failure aborts
// the whole fetch.
func (g *GammaClient) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	now := time.Now().UTC()

	for offset := 0; ; offset += g.pageLimit {
		page, err := g.getMarketsPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for i := range page {
			am := &page[i]
			if am.Closed || !am.Active {
				continue
			}
			markets = append(markets, am.toDomainMarket(now))
		}

		if len(page) < g.pageLimit {
			break
		}
	}

	return markets, nil
}

func (g *GammaClient) getMarketsPage(ctx context.Context, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(g.pageLimit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return apiMarkets, nil
}

func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

// Compile-time interface check.
var _ domain.MarketProvider = (*GammaClient)(nil)
