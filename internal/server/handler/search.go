package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

const defaultSearchK = 10

// SearchHandler serves nearest-neighbour lookups against the vector index.
type SearchHandler struct {
	embedder domain.Embedder
	index    domain.VectorIndex
	logger   *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(embedder domain.Embedder, index domain.VectorIndex, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{embedder: embedder, index: index, logger: logger}
}

type searchRequest struct {
	Title string `json:"title"`
	K     int    `json:"k"`
}

// SearchMarkets embeds the posted title and returns the k most similar
// indexed markets. POST /api/markets/search
func (h *SearchHandler) SearchMarkets(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	k := req.K
	if k <= 0 {
		k = defaultSearchK
	}

	vecs, err := h.embedder.Embed(r.Context(), []string{req.Title})
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			writeError(w, http.StatusTooManyRequests, "embedding service rate limited")
			return
		}
		h.logger.ErrorContext(r.Context(), "embed search title failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "embedding service unavailable")
		return
	}

	hits, err := h.index.Query(r.Context(), vecs[0], k)
	if err != nil {
		if errors.Is(err, domain.ErrIndexRebuilding) {
			writeError(w, http.StatusServiceUnavailable, "index rebuild in progress, retry shortly")
			return
		}
		h.logger.ErrorContext(r.Context(), "vector index query failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "index query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"hits":  hits,
		"count": len(hits),
	})
}
