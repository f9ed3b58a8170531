package domain

import (
	"context"
	"io"
	"time"
)

// MarketProvider fetches the current market list for one venue. A transport
// failure is fatal for that venue's refresh; no partial list is synthesized.
type MarketProvider interface {
	Venue() Venue
	FetchMarkets(ctx context.Context) ([]Market, error)
}

// Embedder turns texts into fixed-dimension, L2-normalized vectors. The
// output preserves input order and length, and is idempotent for identical
// text. Implementations are expected to be the only blocking step in the
// matching pipeline.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexEntry is one record in the vector index.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// IndexHit is one query result, with Score a cosine similarity in [0,1].
type IndexHit struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// VectorIndex persists embedding vectors per market. A rebuild must be
// mutually exclusive with queries: while Rebuilding reports true, Query and
// ListAll fail fast with ErrIndexRebuilding instead of observing a partially
// repopulated index.
type VectorIndex interface {
	Upsert(ctx context.Context, entry IndexEntry) error
	Query(ctx context.Context, vector []float32, k int) ([]IndexHit, error)
	ListAll(ctx context.Context) ([]IndexEntry, error)
	Clear(ctx context.Context) error
	SetRebuilding(ctx context.Context, on bool, ttl time.Duration) error
	Rebuilding(ctx context.Context) (bool, error)
}

// MatchStore persists matched pairs per scan pass.
type MatchStore interface {
	InsertBatch(ctx context.Context, passID string, pairs []MatchedPair) error
	ListByPass(ctx context.Context, passID string) ([]MatchedPair, error)
	LatestPassID(ctx context.Context) (string, error)
}

// OpportunityStore persists arbitrage opportunity history.
type OpportunityStore interface {
	Insert(ctx context.Context, passID string, opp Opportunity) error
	ListRecent(ctx context.Context, limit int) ([]Opportunity, error)
}

// LockManager provides distributed locking.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// SignalBus provides pub/sub messaging between pipeline and API layers.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// BlobWriter uploads data to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
