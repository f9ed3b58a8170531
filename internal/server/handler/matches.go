package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/service"
)

// MatchHandler serves recorded matched pairs.
type MatchHandler struct {
	svc    *service.MatchService
	logger *slog.Logger
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(svc *service.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{svc: svc, logger: logger}
}

// ListMatches returns the matched pairs from the most recent scan pass.
// GET /api/matches
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	passID, pairs, err := h.svc.LatestMatches(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no scan pass recorded yet")
			return
		}
		h.logger.ErrorContext(r.Context(), "list matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list matches")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pass_id": passID,
		"pairs":   pairs,
	})
}
