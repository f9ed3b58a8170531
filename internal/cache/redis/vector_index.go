package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// VectorIndex implements domain.VectorIndex using Redis hashes with JSON-
// serialized entries and a brute-force cosine scan on query. Market counts
// here stay in the low thousands, so a linear scan is faster than anything
// that needs an index rebuild on every pass.
//
// Key schema:
//
//	arbbot:vec:{id}      - hash with field "data" containing JSON
//	arbbot:vec:ids       - set of all entry IDs
//	arbbot:vec:rebuilding - present (with TTL) while a rebuild is in flight
type VectorIndex struct {
	rdb *redis.Client
}

// NewVectorIndex creates a VectorIndex backed by the given Client.
func NewVectorIndex(c *Client) *VectorIndex {
	return &VectorIndex{rdb: c.Underlying()}
}

const (
	vecIDsKey        = "arbbot:vec:ids"
	vecRebuildingKey = "arbbot:vec:rebuilding"
	vecTTL           = 30 * time.Minute
)

func vecKey(id string) string { return "arbbot:vec:" + id }

type indexRecord struct {
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Upsert writes or replaces one entry. Entries expire after 30 minutes so
// markets that leave both venues age out without explicit deletion.
func (vi *VectorIndex) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	data, err := json.Marshal(indexRecord{Vector: entry.Vector, Metadata: entry.Metadata})
	if err != nil {
		return fmt.Errorf("redis: marshal index entry %s: %w", entry.ID, err)
	}

	key := vecKey(entry.ID)

	pipe := vi.rdb.TxPipeline()
	pipe.HSet(ctx, key, "data", data)
	pipe.Expire(ctx, key, vecTTL)
	pipe.SAdd(ctx, vecIDsKey, entry.ID)
	pipe.Expire(ctx, vecIDsKey, vecTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: upsert index entry %s: %w", entry.ID, err)
	}
	return nil
}

// Query returns up to k entries ranked by cosine similarity to the given
// vector. It fails fast with domain.ErrIndexRebuilding while a rebuild is in
// flight rather than scoring against a partially repopulated index.
func (vi *VectorIndex) Query(ctx context.Context, vector []float32, k int) ([]domain.IndexHit, error) {
	entries, err := vi.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.IndexHit, 0, len(entries))
	for _, e := range entries {
		score := dot(vector, e.Vector)
		if score <= 0 {
			continue
		}
		hits = append(hits, domain.IndexHit{ID: e.ID, Score: score, Metadata: e.Metadata})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// ListAll returns every live entry. Entries whose hash expired between the
// ID-set read and the fetch are skipped and pruned from the ID set.
func (vi *VectorIndex) ListAll(ctx context.Context) ([]domain.IndexEntry, error) {
	rebuilding, err := vi.Rebuilding(ctx)
	if err != nil {
		return nil, err
	}
	if rebuilding {
		return nil, domain.ErrIndexRebuilding
	}

	ids, err := vi.rdb.SMembers(ctx, vecIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list index ids: %w", err)
	}

	entries := make([]domain.IndexEntry, 0, len(ids))
	for _, id := range ids {
		data, err := vi.rdb.HGet(ctx, vecKey(id), "data").Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				_ = vi.rdb.SRem(ctx, vecIDsKey, id).Err()
				continue
			}
			return nil, fmt.Errorf("redis: get index entry %s: %w", id, err)
		}

		var rec indexRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("redis: unmarshal index entry %s: %w", id, err)
		}
		entries = append(entries, domain.IndexEntry{ID: id, Vector: rec.Vector, Metadata: rec.Metadata})
	}
	return entries, nil
}

// Clear removes all entries and the ID set.
func (vi *VectorIndex) Clear(ctx context.Context) error {
	ids, err := vi.rdb.SMembers(ctx, vecIDsKey).Result()
	if err != nil {
		return fmt.Errorf("redis: list index ids: %w", err)
	}

	pipe := vi.rdb.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, vecKey(id))
	}
	pipe.Del(ctx, vecIDsKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: clear index: %w", err)
	}
	return nil
}

// SetRebuilding raises or lowers the rebuild flag. The TTL bounds how long a
// crashed rebuild can leave reads blocked.
func (vi *VectorIndex) SetRebuilding(ctx context.Context, on bool, ttl time.Duration) error {
	if on {
		if err := vi.rdb.Set(ctx, vecRebuildingKey, "1", ttl).Err(); err != nil {
			return fmt.Errorf("redis: set rebuilding flag: %w", err)
		}
		return nil
	}
	if err := vi.rdb.Del(ctx, vecRebuildingKey).Err(); err != nil {
		return fmt.Errorf("redis: clear rebuilding flag: %w", err)
	}
	return nil
}

// Rebuilding reports whether a rebuild is in flight.
func (vi *VectorIndex) Rebuilding(ctx context.Context) (bool, error) {
	n, err := vi.rdb.Exists(ctx, vecRebuildingKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis: check rebuilding flag: %w", err)
	}
	return n > 0, nil
}

// dot computes the dot product of two vectors. Stored vectors are unit
// length, so this equals cosine similarity. Mismatched lengths score zero.
func dot(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Compile-time interface check.
var _ domain.VectorIndex = (*VectorIndex)(nil)
