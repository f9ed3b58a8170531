package matching

import (
	"context"
	"log/slog"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// Matcher commits a greedy one-to-one assignment between the two venues'
// market lists. The claimed set is local to each FindMatches call, so
// concurrent passes cannot interfere with each other.
//
// The assignment is deliberately not globally optimal: a Polymarket market
// claimed early can block a better match for a later Kalshi market. Greedy
// order-dependence is a complexity/runtime trade-off kept on purpose; an
// augmenting-path matcher would change outputs and is out of scope.
type Matcher struct {
	extractor *Extractor
	chain     *Chain
	logger    *slog.Logger
}

// NewMatcher creates a Matcher using the given scorer fallback chain.
func NewMatcher(chain *Chain, logger *slog.Logger) *Matcher {
	return &Matcher{
		extractor: NewExtractor(),
		chain:     chain,
		logger:    logger.With(slog.String("component", "matcher")),
	}
}

// FindMatches scores every Kalshi market against every unclaimed Polymarket
// market and emits a pair when the best score clears minSimilarity. Kalshi
// markets are walked in fetch order; ties go to the first-encountered
// Polymarket candidate. vectors maps market ID to an embedding and may be nil,
// in which case scoring degrades to lexical mode.
//
// O(|A|·|B|) per pass. Given identical inputs and iteration order, two runs
// produce identical pair sets and scores.
func (m *Matcher) FindMatches(
	ctx context.Context,
	kalshi, polymarket []domain.Market,
	vectors map[string][]float32,
	minSimilarity float64,
) []domain.MatchedPair {
	candsA := m.candidates(kalshi, vectors)
	candsB := m.candidates(polymarket, vectors)

	claimed := make(map[int]bool, len(candsB))
	pairs := make([]domain.MatchedPair, 0)

	for _, ca := range candsA {
		bestIdx := -1
		var best Result
		var bestScorer Scorer

		for j, cb := range candsB {
			if claimed[j] {
				continue
			}
			scorer := m.chain.Pick(ca, cb)
			res := scorer.Score(ca, cb)
			if res.Pruned {
				continue
			}
			if bestIdx == -1 || res.Score > best.Score {
				bestIdx = j
				best = res
				bestScorer = scorer
			}
		}

		if bestIdx == -1 || best.Score < minSimilarity {
			continue
		}

		claimed[bestIdx] = true
		pairs = append(pairs, domain.MatchedPair{
			Kalshi:     ca.Market,
			Polymarket: candsB[bestIdx].Market,
			Similarity: best.Score,
			Confidence: bestScorer.Confidence(best.Score),
			Details: domain.MatchDetails{
				Matches:   best.Matches,
				Conflicts: best.Conflicts,
			},
		})
	}

	m.logger.DebugContext(ctx, "matching pass complete",
		slog.Int("kalshi_markets", len(kalshi)),
		slog.Int("polymarket_markets", len(polymarket)),
		slog.Int("pairs", len(pairs)),
	)
	return pairs
}

// candidates extracts entity bags for a market list, caching per distinct
// title within the pass.
func (m *Matcher) candidates(markets []domain.Market, vectors map[string][]float32) []Candidate {
	bags := make(map[string]*domain.EntityBag, len(markets))
	out := make([]Candidate, 0, len(markets))
	for _, mkt := range markets {
		bag, ok := bags[mkt.Title]
		if !ok {
			bag = m.extractor.Extract(mkt.Title)
			bags[mkt.Title] = bag
		}
		out = append(out, Candidate{
			Market: mkt,
			Bag:    bag,
			Vector: vectors[mkt.ID],
		})
	}
	return out
}
