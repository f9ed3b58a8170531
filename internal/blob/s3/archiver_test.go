package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

type captureWriter struct {
	path        string
	contentType string
	data        []byte
	calls       int
}

func (c *captureWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	c.calls++
	c.path = path
	c.contentType = contentType
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	c.data = b
	return nil
}

func TestArchivePass_WritesJSONL(t *testing.T) {
	w := &captureWriter{}
	a := NewPassArchiver(w, "passes")

	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pairs := []domain.MatchedPair{
		{Kalshi: domain.Market{ID: "k1"}, Polymarket: domain.Market{ID: "p1"}, Similarity: 0.9},
	}
	opps := []domain.Opportunity{
		{ID: "opp-1", NetProfit: 2.4},
	}

	require.NoError(t, a.ArchivePass(context.Background(), "pass-1", at, pairs, opps))
	assert.Equal(t, "passes/2026-08-30/pass-1.jsonl", w.path)
	assert.Equal(t, "application/x-ndjson", w.contentType)

	var lines []passLine
	scanner := bufio.NewScanner(bytes.NewReader(w.data))
	for scanner.Scan() {
		var line passLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "matched_pair", lines[0].Kind)
	assert.Equal(t, "pass-1", lines[0].PassID)
	require.NotNil(t, lines[0].Pair)
	assert.Equal(t, "k1", lines[0].Pair.Kalshi.ID)

	assert.Equal(t, "opportunity", lines[1].Kind)
	require.NotNil(t, lines[1].Opportunity)
	assert.Equal(t, "opp-1", lines[1].Opportunity.ID)
}

func TestArchivePass_SkipsEmptyPass(t *testing.T) {
	w := &captureWriter{}
	a := NewPassArchiver(w, "")

	require.NoError(t, a.ArchivePass(context.Background(), "pass-2", time.Now(), nil, nil))
	assert.Zero(t, w.calls)
}
