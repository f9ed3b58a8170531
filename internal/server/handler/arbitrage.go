package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/service"
)

// ArbHandler serves recorded opportunities and on-demand arbitrage
// evaluation.
type ArbHandler struct {
	svc    *service.ArbService
	logger *slog.Logger
}

// NewArbHandler creates an ArbHandler.
func NewArbHandler(svc *service.ArbService, logger *slog.Logger) *ArbHandler {
	return &ArbHandler{svc: svc, logger: logger}
}

// ListRecent returns the most recently detected arbitrage opportunities.
// GET /api/opportunities?limit=N
func (h *ArbHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	opps, err := h.svc.ListRecent(r.Context(), parseLimit(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"count":         len(opps),
	})
}

// computeRequest is the body for on-demand arbitrage evaluation of one pair.
type computeRequest struct {
	Kalshi     computeMarket `json:"kalshi"`
	Polymarket computeMarket `json:"polymarket"`
	Investment float64       `json:"investment"`
}

type computeMarket struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	YesPrice float64 `json:"yes_price"`
}

// ComputeArbitrage evaluates a caller-supplied pair of markets without
// touching the stores.
// POST /api/arbitrage/compute
func (h *ArbHandler) ComputeArbitrage(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Kalshi.ID == "" || req.Polymarket.ID == "" {
		writeError(w, http.StatusBadRequest, "both market ids are required")
		return
	}

	pair := domain.MatchedPair{
		Kalshi: domain.Market{
			ID:    req.Kalshi.ID,
			Venue: domain.VenueKalshi,
			Title: req.Kalshi.Title,
		}.WithPrice(req.Kalshi.YesPrice),
		Polymarket: domain.Market{
			ID:    req.Polymarket.ID,
			Venue: domain.VenuePolymarket,
			Title: req.Polymarket.Title,
		}.WithPrice(req.Polymarket.YesPrice),
	}

	opp, ok := h.svc.ComputeArbitrage(pair, req.Investment)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{
			"profitable": false,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"profitable":  true,
		"opportunity": opp,
	})
}
