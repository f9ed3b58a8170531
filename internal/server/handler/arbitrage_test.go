package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archithvenkatesh/arbitrage-bot/internal/arb"
	"github.com/archithvenkatesh/arbitrage-bot/internal/fees"
	"github.com/archithvenkatesh/arbitrage-bot/internal/service"
)

func newArbHandler() *ArbHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	calc := arb.NewCalculator(fees.DefaultSchedule(), fees.TierTaker)
	svc := service.NewArbService(calc, nil, nil, 100, logger)
	return NewArbHandler(svc, logger)
}

func TestComputeArbitrage_Profitable(t *testing.T) {
	h := newArbHandler()

	body, _ := json.Marshal(computeRequest{
		Kalshi:     computeMarket{ID: "k1", Title: "Fed cuts rates in 2026", YesPrice: 0.79},
		Polymarket: computeMarket{ID: "p1", Title: "Fed cuts rates in 2026", YesPrice: 0.75},
		Investment: 100,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/arbitrage/compute", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ComputeArbitrage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Profitable  bool `json:"profitable"`
		Opportunity struct {
			NetProfit float64 `json:"net_profit"`
		} `json:"opportunity"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Profitable)
	assert.Positive(t, resp.Opportunity.NetProfit)
}

func TestComputeArbitrage_NotProfitable(t *testing.T) {
	h := newArbHandler()

	body, _ := json.Marshal(computeRequest{
		Kalshi:     computeMarket{ID: "k1", YesPrice: 0.6},
		Polymarket: computeMarket{ID: "p1", YesPrice: 0.6},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/arbitrage/compute", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ComputeArbitrage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["profitable"])
	assert.NotContains(t, resp, "opportunity")
}

func TestComputeArbitrage_BadRequests(t *testing.T) {
	h := newArbHandler()

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/arbitrage/compute", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.ComputeArbitrage(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing ids", func(t *testing.T) {
		body, _ := json.Marshal(computeRequest{})
		req := httptest.NewRequest(http.MethodPost, "/api/arbitrage/compute", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.ComputeArbitrage(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthCheck(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHealthHandler(logger)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "arbitrage-bot", resp["service"])
	assert.Contains(t, resp, "uptime_seconds")
}
