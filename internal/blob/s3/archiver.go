package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// PassArchiver serializes the result of one scan pass to JSONL and uploads
// it to object storage. Archives are append-only history; nothing in the hot
// path reads them back.
type PassArchiver struct {
	writer domain.BlobWriter
	prefix string
}

// NewPassArchiver creates a PassArchiver that uploads under the given key
// prefix.
func NewPassArchiver(writer domain.BlobWriter, prefix string) *PassArchiver {
	if prefix == "" {
		prefix = "passes"
	}
	return &PassArchiver{writer: writer, prefix: prefix}
}

// passLine is one JSONL record. Exactly one of Pair or Opportunity is set,
// discriminated by Kind.
type passLine struct {
	Kind        string              `json:"kind"`
	PassID      string              `json:"pass_id"`
	Pair        *domain.MatchedPair `json:"pair,omitempty"`
	Opportunity *domain.Opportunity `json:"opportunity,omitempty"`
}

// ArchivePass uploads all matched pairs and opportunities from one pass as a
// single JSONL object keyed by date and pass ID.
func (a *PassArchiver) ArchivePass(ctx context.Context, passID string, at time.Time, pairs []domain.MatchedPair, opps []domain.Opportunity) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for i := range pairs {
		line := passLine{Kind: "matched_pair", PassID: passID, Pair: &pairs[i]}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("s3blob: encode matched pair: %w", err)
		}
	}
	for i := range opps {
		line := passLine{Kind: "opportunity", PassID: passID, Opportunity: &opps[i]}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("s3blob: encode opportunity: %w", err)
		}
	}

	if buf.Len() == 0 {
		return nil
	}

	key := fmt.Sprintf("%s/%s/%s.jsonl", a.prefix, at.UTC().Format("2006-01-02"), passID)
	if err := a.writer.Put(ctx, key, &buf, "application/x-ndjson"); err != nil {
		return fmt.Errorf("s3blob: archive pass %s: %w", passID, err)
	}
	return nil
}
