package handler

import (
	"log/slog"
	"net/http"

	"github.com/archithvenkatesh/arbitrage-bot/internal/pipeline"
)

// ScanHandler triggers an immediate scan pass outside the regular schedule.
type ScanHandler struct {
	refresher *pipeline.Refresher
	logger    *slog.Logger
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(refresher *pipeline.Refresher, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{refresher: refresher, logger: logger}
}

// TriggerScan runs one scan pass synchronously and returns a summary.
// POST /api/scan
func (h *ScanHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	result, err := h.refresher.RunPass(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "triggered scan failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "scan pass failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pass_id":            result.PassID,
		"kalshi_markets":     result.Kalshi,
		"polymarket_markets": result.Polymarket,
		"pairs":              len(result.Pairs),
		"opportunities":      len(result.Opportunities),
		"duration_ms":        result.Duration.Milliseconds(),
	})
}
