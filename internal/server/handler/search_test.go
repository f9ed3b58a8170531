package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec
	}
	return out, nil
}

type fakeIndex struct {
	hits       []domain.IndexHit
	rebuilding bool
}

func (f *fakeIndex) Upsert(context.Context, domain.IndexEntry) error { return nil }

func (f *fakeIndex) Query(_ context.Context, _ []float32, k int) ([]domain.IndexHit, error) {
	if f.rebuilding {
		return nil, domain.ErrIndexRebuilding
	}
	if k > 0 && len(f.hits) > k {
		return f.hits[:k], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) ListAll(context.Context) ([]domain.IndexEntry, error) { return nil, nil }

func (f *fakeIndex) Clear(context.Context) error { return nil }

func (f *fakeIndex) SetRebuilding(_ context.Context, on bool, _ time.Duration) error {
	f.rebuilding = on
	return nil
}

func (f *fakeIndex) Rebuilding(context.Context) (bool, error) { return f.rebuilding, nil }

func newSearchHandler(embedder domain.Embedder, index domain.VectorIndex) *SearchHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSearchHandler(embedder, index, logger)
}

func TestSearchMarkets(t *testing.T) {
	index := &fakeIndex{hits: []domain.IndexHit{
		{ID: "m1", Score: 0.95},
		{ID: "m2", Score: 0.80},
		{ID: "m3", Score: 0.55},
	}}
	h := newSearchHandler(&fakeEmbedder{vec: []float32{1, 0}}, index)

	body, _ := json.Marshal(searchRequest{Title: "Fed cuts rates in 2026", K: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/markets/search", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.SearchMarkets(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Hits  []domain.IndexHit `json:"hits"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "m1", resp.Hits[0].ID)
}

func TestSearchMarkets_IndexRebuilding(t *testing.T) {
	h := newSearchHandler(&fakeEmbedder{vec: []float32{1, 0}}, &fakeIndex{rebuilding: true})

	body, _ := json.Marshal(searchRequest{Title: "Fed cuts rates in 2026"})
	req := httptest.NewRequest(http.MethodPost, "/api/markets/search", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.SearchMarkets(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearchMarkets_BadRequests(t *testing.T) {
	h := newSearchHandler(&fakeEmbedder{vec: []float32{1, 0}}, &fakeIndex{})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/markets/search", bytes.NewReader([]byte("{")))
		rec := httptest.NewRecorder()
		h.SearchMarkets(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing title", func(t *testing.T) {
		body, _ := json.Marshal(searchRequest{})
		req := httptest.NewRequest(http.MethodPost, "/api/markets/search", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.SearchMarkets(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rate limited embedder", func(t *testing.T) {
		h := newSearchHandler(&fakeEmbedder{err: domain.ErrRateLimited}, &fakeIndex{})
		body, _ := json.Marshal(searchRequest{Title: "anything"})
		req := httptest.NewRequest(http.MethodPost, "/api/markets/search", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		h.SearchMarkets(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}
