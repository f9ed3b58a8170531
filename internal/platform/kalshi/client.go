// Package kalshi implements the Kalshi venue fetch collaborator: a REST
// client for the trade API with cursor pagination, client-side rate limiting,
// and optional RSA request signing.
package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	pageLimit  int
	limiter    *rate.Limiter
	httpClient *http.Client
}

// Config holds client construction parameters.
type Config struct {
	BaseURL           string
	ApiKeyID          string
	PageLimit         int
	RequestsPerSecond float64
}

// NewClient creates a new Kalshi REST client.
//
// BaseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
func NewClient(cfg Config) *Client {
	limit := cfg.PageLimit
	if limit <= 0 {
		limit = 200
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKeyID:  cfg.ApiKeyID,
		pageLimit: limit,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for signed authentication. Market data endpoints are
// public; without a key requests are sent unsigned.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 as fallback.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// Venue identifies this provider.
func (c *Client) Venue() domain.Venue { return domain.VenueKalshi }

// FetchMarkets walks the cursor-paginated /markets endpoint and returns every
// open market as a domain.Market. Any transport or decode failure aborts the
// whole fetch; no partial list is returned.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	cursor := ""
	now := time.Now().UTC()

	for {
		page, next, err := c.getMarketsPage(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for i := range page {
			am := &page[i]
			if am.Status != "open" && am.Status != "active" {
				continue
			}
			markets = append(markets, toDomainMarket(am, now))
		}

		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}

	return markets, nil
}

func (c *Client) getMarketsPage(ctx context.Context, cursor string) ([]APIMarket, string, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageLimit))
	params.Set("status", "open")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/markets?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}
	return resp.Markets, resp.Cursor, nil
}

// toDomainMarket maps an API market to the domain model. The title combines
// title and subtitle so strike qualifiers survive into matching; markets with
// no usable quote default to the neutral 0.5 and are flagged.
func toDomainMarket(am *APIMarket, fetchedAt time.Time) domain.Market {
	title := am.Title
	if am.Subtitle != "" {
		title = title + " " + am.Subtitle
	}

	m := domain.Market{
		ID:        am.Ticker,
		Venue:     domain.VenueKalshi,
		Title:     title,
		Volume24h: float64(am.Volume24H),
		Status:    domain.MarketStatusActive,
		FetchedAt: fetchedAt,
	}
	return m.WithPrice(am.midPrice())
}

// doRequest builds, optionally signs, sends, and reads an HTTP request
// against the Kalshi API, honoring the client-side rate limit.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.privateKey != nil {
		if err := c.signRequest(req, method, path); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(respBody, 256))
	}

	return respBody, nil
}

// signRequest adds RSA-PSS-SHA256 authentication headers. The signed message
// is timestamp + method + path.
func (c *Client) signRequest(req *http.Request, method, path string) error {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + method + path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Compile-time interface check.
var _ domain.MarketProvider = (*Client)(nil)
