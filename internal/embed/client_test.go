package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

func newEmbedServer(t *testing.T, requests *int32, reorder bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(requests, 1)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var resp embeddingResponse
		for i := range req.Input {
			entry := struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(len(req.Input[i])), 0}}
			resp.Data = append(resp.Data, entry)
		}
		if reorder && len(resp.Data) > 1 {
			resp.Data[0], resp.Data[1] = resp.Data[1], resp.Data[0]
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbed_PreservesOrderAndLength(t *testing.T) {
	var requests int32
	srv := newEmbedServer(t, &requests, true)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test", BatchSize: 10})

	vecs, err := c.Embed(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	// Each vector encodes its input's length in the first component; after
	// normalization that component is 1 for any nonzero input.
	for _, v := range vecs {
		require.Len(t, v, 2)
		assert.InDelta(t, 1.0, float64(v[0]), 1e-6)
	}
	assert.Equal(t, int32(1), requests)
}

func TestEmbed_BatchesLargeInputs(t *testing.T) {
	var requests int32
	srv := newEmbedServer(t, &requests, false)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test", BatchSize: 2})

	vecs, err := c.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Len(t, vecs, 5)
	assert.Equal(t, int32(3), requests)
}

func TestEmbed_EmptyInput(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused", Model: "test"})
	vecs, err := c.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbed_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Model: "test"})
	_, err := c.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	zero := normalize([]float32{0, 0})
	assert.Equal(t, []float32{0, 0}, zero)
}
