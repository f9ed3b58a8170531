package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archithvenkatesh/arbitrage-bot/internal/arb"
	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
	"github.com/archithvenkatesh/arbitrage-bot/internal/fees"
	"github.com/archithvenkatesh/arbitrage-bot/internal/matching"
	"github.com/archithvenkatesh/arbitrage-bot/internal/service"
)

type fakeProvider struct {
	venue   domain.Venue
	markets []domain.Market
	err     error
}

func (f *fakeProvider) Venue() domain.Venue { return f.venue }
func (f *fakeProvider) FetchMarkets(context.Context) ([]domain.Market, error) {
	return f.markets, f.err
}

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	vecs := make([][]float32, len(texts))
	for i := range texts {
		vecs[i] = []float32{1, 0}
	}
	return vecs, nil
}

type memIndex struct {
	entries        map[string]domain.IndexEntry
	rebuilding     bool
	setCalls       []bool
	clearedDuring  bool
	upsertedDuring bool
}

func newMemIndex() *memIndex {
	return &memIndex{entries: make(map[string]domain.IndexEntry)}
}

func (m *memIndex) Upsert(_ context.Context, e domain.IndexEntry) error {
	if m.rebuilding {
		m.upsertedDuring = true
	}
	m.entries[e.ID] = e
	return nil
}
func (m *memIndex) Query(context.Context, []float32, int) ([]domain.IndexHit, error) {
	return nil, nil
}
func (m *memIndex) ListAll(context.Context) ([]domain.IndexEntry, error) {
	if m.rebuilding {
		return nil, domain.ErrIndexRebuilding
	}
	out := make([]domain.IndexEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}
func (m *memIndex) Clear(context.Context) error {
	if m.rebuilding {
		m.clearedDuring = true
	}
	m.entries = make(map[string]domain.IndexEntry)
	return nil
}
func (m *memIndex) SetRebuilding(_ context.Context, on bool, _ time.Duration) error {
	m.rebuilding = on
	m.setCalls = append(m.setCalls, on)
	return nil
}
func (m *memIndex) Rebuilding(context.Context) (bool, error) { return m.rebuilding, nil }

type memMatchStore struct {
	passes map[string][]domain.MatchedPair
	latest string
}

func (s *memMatchStore) InsertBatch(_ context.Context, passID string, pairs []domain.MatchedPair) error {
	if s.passes == nil {
		s.passes = make(map[string][]domain.MatchedPair)
	}
	s.passes[passID] = pairs
	s.latest = passID
	return nil
}
func (s *memMatchStore) ListByPass(_ context.Context, passID string) ([]domain.MatchedPair, error) {
	return s.passes[passID], nil
}
func (s *memMatchStore) LatestPassID(context.Context) (string, error) {
	if s.latest == "" {
		return "", domain.ErrNotFound
	}
	return s.latest, nil
}

type memOppStore struct {
	opps []domain.Opportunity
}

func (s *memOppStore) Insert(_ context.Context, _ string, opp domain.Opportunity) error {
	s.opps = append(s.opps, opp)
	return nil
}
func (s *memOppStore) ListRecent(context.Context, int) ([]domain.Opportunity, error) {
	return s.opps, nil
}

type fakeAlerter struct {
	opps     []domain.Opportunity
	failures []error
}

func (a *fakeAlerter) NotifyOpportunity(_ context.Context, opp domain.Opportunity) error {
	a.opps = append(a.opps, opp)
	return nil
}

func (a *fakeAlerter) NotifyPassFailure(_ context.Context, err error) error {
	a.failures = append(a.failures, err)
	return nil
}

type fakeLocks struct {
	acquired int
	held     bool
}

func (l *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.held {
		return nil, domain.ErrLockHeld
	}
	l.acquired++
	return func() {}, nil
}

func newTestRefresher(t *testing.T, kalshi, poly *fakeProvider, embedder domain.Embedder, index domain.VectorIndex, locks domain.LockManager, alerter Alerter) (*Refresher, *memMatchStore, *memOppStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	chain := matching.NewChain(
		matching.HybridScorer{},
		matching.LexicalScorer{},
		matching.KeywordScorer{},
	)
	matcher := matching.NewMatcher(chain, logger)

	matchStore := &memMatchStore{}
	oppStore := &memOppStore{}

	matchSvc := service.NewMatchService(matcher, index, matchStore, 0.5, logger)
	arbSvc := service.NewArbService(
		arb.NewCalculator(fees.DefaultSchedule(), fees.TierTaker),
		oppStore, nil, 100, logger,
	)

	r := NewRefresher(RefresherConfig{
		Kalshi:     kalshi,
		Polymarket: poly,
		Embedder:   embedder,
		Index:      index,
		Locks:      locks,
		MatchSvc:   matchSvc,
		ArbSvc:     arbSvc,
		Alerter:    alerter,
		LockTTL:    time.Minute,
		Logger:     logger,
	})
	return r, matchStore, oppStore
}

func market(venue domain.Venue, id, title string, yes float64) domain.Market {
	return domain.Market{ID: id, Venue: venue, Title: title}.WithPrice(yes)
}

func TestRunPass_EndToEnd(t *testing.T) {
	kalshi := &fakeProvider{venue: domain.VenueKalshi, markets: []domain.Market{
		market(domain.VenueKalshi, "k1", "Will the Fed cut rates in 2026?", 0.79),
	}}
	poly := &fakeProvider{venue: domain.VenuePolymarket, markets: []domain.Market{
		market(domain.VenuePolymarket, "p1", "Will the Fed cut rates in 2026?", 0.75),
	}}

	index := newMemIndex()
	locks := &fakeLocks{}
	alerter := &fakeAlerter{}
	r, matchStore, oppStore := newTestRefresher(t, kalshi, poly, &fakeEmbedder{}, index, locks, alerter)

	result, err := r.RunPass(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.PassID)
	assert.Equal(t, 1, result.Kalshi)
	assert.Equal(t, 1, result.Polymarket)
	require.Len(t, result.Pairs, 1)
	assert.Greater(t, result.Pairs[0].Similarity, 0.9)
	assert.Equal(t, domain.ConfidenceHigh, result.Pairs[0].Confidence)

	// Kalshi NO at 0.21 plus Polymarket YES at 0.75 sums below 1, so the
	// pass finds the arb.
	require.Len(t, result.Opportunities, 1)
	assert.Positive(t, result.Opportunities[0].NetProfit)

	assert.Len(t, matchStore.passes[result.PassID], 1)
	assert.Len(t, oppStore.opps, 1)

	// High-confidence pair, so the operator alert fires.
	assert.Len(t, alerter.opps, 1)

	// Rebuild raised the flag, repopulated under it, and lowered it again.
	assert.Equal(t, []bool{true, false}, index.setCalls)
	assert.True(t, index.clearedDuring)
	assert.True(t, index.upsertedDuring)
	assert.Equal(t, 1, locks.acquired)
	assert.Len(t, index.entries, 2)
}

func TestRunPass_AlertsOnlyHighConfidence(t *testing.T) {
	// Lexical-only matching: shared name plus partial word overlap lands at
	// 0.61, a medium-confidence pair. The arb is real and is persisted, but
	// no operator alert fires below the high tier.
	kalshi := &fakeProvider{venue: domain.VenueKalshi, markets: []domain.Market{
		market(domain.VenueKalshi, "k1", "Taylor Swift announces world tour dates for next summer", 0.79),
	}}
	poly := &fakeProvider{venue: domain.VenuePolymarket, markets: []domain.Market{
		market(domain.VenuePolymarket, "p1", "Taylor Swift world tour kicks off next summer", 0.75),
	}}

	alerter := &fakeAlerter{}
	r, _, oppStore := newTestRefresher(t, kalshi, poly, nil, nil, nil, alerter)

	result, err := r.RunPass(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Pairs, 1)
	assert.Equal(t, domain.ConfidenceMedium, result.Pairs[0].Confidence)
	require.Len(t, result.Opportunities, 1)
	assert.Len(t, oppStore.opps, 1)
	assert.Empty(t, alerter.opps)
}

func TestRunPass_VenueFailureIsFatal(t *testing.T) {
	kalshi := &fakeProvider{venue: domain.VenueKalshi, err: errors.New("boom")}
	poly := &fakeProvider{venue: domain.VenuePolymarket}

	r, matchStore, _ := newTestRefresher(t, kalshi, poly, nil, newMemIndex(), nil, nil)

	_, err := r.RunPass(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch kalshi")
	assert.Empty(t, matchStore.passes)
}

func TestRunPass_SkipsRebuildWhenLockHeld(t *testing.T) {
	kalshi := &fakeProvider{venue: domain.VenueKalshi, markets: []domain.Market{
		market(domain.VenueKalshi, "k1", "Spot gold above $3000 in 2026?", 0.5),
	}}
	poly := &fakeProvider{venue: domain.VenuePolymarket, markets: []domain.Market{
		market(domain.VenuePolymarket, "p1", "Spot gold above $3000 in 2026?", 0.5),
	}}

	index := newMemIndex()
	r, _, _ := newTestRefresher(t, kalshi, poly, &fakeEmbedder{}, index, &fakeLocks{held: true}, nil)

	_, err := r.RunPass(context.Background())
	require.NoError(t, err)

	// Another process owns the rebuild; this pass leaves the index alone.
	assert.Empty(t, index.setCalls)
	assert.Empty(t, index.entries)
}
