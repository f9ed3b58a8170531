package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

// Result is the outcome of scoring one candidate pair. Pruned marks pairs
// discarded before full scoring (hybrid mode only).
type Result struct {
	Score     float64
	Matches   []string
	Conflicts []string
	Pruned    bool
}

// Candidate bundles a market with its entity bag and optional embedding
// vector for one matching pass.
type Candidate struct {
	Market domain.Market
	Bag    *domain.EntityBag
	Vector []float32
}

// Scorer produces a similarity score in [0,1] for a candidate pair, plus the
// operator-facing match/conflict explanation. Implementations are pure and
// safe for concurrent use.
type Scorer interface {
	Mode() string
	// Ready reports whether this scorer has the inputs it needs for the
	// pair. The chain falls through to the next scorer when false.
	Ready(a, b Candidate) bool
	Score(a, b Candidate) Result
	// Confidence buckets a score using this mode's documented cut lines.
	Confidence(score float64) domain.Confidence
}

// Chain is an ordered fallback list of scorers. Pick returns the first scorer
// whose inputs are available for the pair, so a pass degrades from hybrid to
// lexical to raw keyword overlap instead of failing.
type Chain struct {
	scorers []Scorer
}

// NewChain creates a Chain. Scorers are consulted in argument order.
func NewChain(scorers ...Scorer) *Chain {
	return &Chain{scorers: scorers}
}

// Pick selects the scorer to use for a pair.
func (c *Chain) Pick(a, b Candidate) Scorer {
	for _, s := range c.scorers {
		if s.Ready(a, b) {
			return s
		}
	}
	return c.scorers[len(c.scorers)-1]
}

// ---------------------------------------------------------------------------
// Lexical scorer
// ---------------------------------------------------------------------------

// LexicalScorer scores pairs from entity bags alone. Cut lines: high at 0.7,
// medium at 0.5.
type LexicalScorer struct{}

func (LexicalScorer) Mode() string { return "lexical" }

func (LexicalScorer) Ready(a, b Candidate) bool {
	return a.Bag != nil && b.Bag != nil
}

// Score implements the lexical rules: exact normalized equality wins
// outright, substring containment covers cross-venue title truncation, and
// explicitly different years are an immediate rejection.
//
// A title whose normalization is empty (all punctuation, e.g. "!!!") scores
// 0 against everything, itself included: two empty bags carry no evidence
// that the underlying propositions are the same, so the self-similarity
// guarantee is deliberately limited to titles with at least one word.
func (LexicalScorer) Score(a, b Candidate) Result {
	ba, bb := a.Bag, b.Bag

	if ba.NormalizedText != "" && ba.NormalizedText == bb.NormalizedText {
		return Result{Score: 1.0, Matches: []string{"exact title match"}}
	}

	if containsEither(ba.NormalizedText, bb.NormalizedText) {
		return Result{Score: 0.85, Matches: []string{"title containment"}}
	}

	if disjointNonEmpty(ba.YearSet, bb.YearSet) {
		return Result{
			Score: 0,
			Conflicts: []string{fmt.Sprintf("different years: %s vs %s",
				setString(ba.YearSet), setString(bb.YearSet))},
		}
	}

	wordJ, sharedWords := jaccard(ba.WordSet, bb.WordSet)
	nameJ, sharedNames := jaccard(ba.NameSet, bb.NameSet)
	numJ, sharedNums := jaccard(ba.NumberSet, bb.NumberSet)

	var matches []string
	if len(sharedWords) > 0 {
		matches = append(matches, "shared words: "+strings.Join(sharedWords, ", "))
	}
	if len(sharedNames) > 0 {
		matches = append(matches, "shared names: "+strings.Join(sharedNames, ", "))
	}
	if len(sharedNums) > 0 {
		matches = append(matches, "shared numbers: "+strings.Join(sharedNums, ", "))
	}

	return Result{
		Score:   0.6*wordJ + 0.25*nameJ + 0.15*numJ,
		Matches: matches,
	}
}

func (LexicalScorer) Confidence(score float64) domain.Confidence {
	switch {
	case score >= 0.7:
		return domain.ConfidenceHigh
	case score >= 0.5:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// ---------------------------------------------------------------------------
// Hybrid scorer
// ---------------------------------------------------------------------------

// minHybridCosine is the cheap pruning floor: pairs whose embeddings are this
// dissimilar are discarded without entity scoring.
const minHybridCosine = 0.4

// HybridScorer combines embedding cosine similarity with additive entity
// signals. Cut lines: high at 0.8, medium at 0.65.
type HybridScorer struct{}

func (HybridScorer) Mode() string { return "hybrid" }

func (HybridScorer) Ready(a, b Candidate) bool {
	return len(a.Vector) > 0 && len(b.Vector) > 0 && a.Bag != nil && b.Bag != nil
}

// Score blends 0.6·cosine + 0.4·max(0, entityScore) + 0.1·wordJaccard. A pair
// is pruned when cosine falls below the floor or when more than one conflict
// category fires.
func (HybridScorer) Score(a, b Candidate) Result {
	cos := Cosine(a.Vector, b.Vector)
	if cos < minHybridCosine {
		return Result{Pruned: true, Conflicts: []string{
			fmt.Sprintf("embedding similarity %.2f below floor", cos)}}
	}

	entity, matches, conflicts := entityScore(a.Bag, b.Bag)
	if len(conflicts) > 1 {
		return Result{Pruned: true, Conflicts: conflicts}
	}

	wordJ, _ := jaccard(a.Bag.WordSet, b.Bag.WordSet)
	score := 0.6*cos + 0.4*math.Max(0, entity) + 0.1*wordJ
	if score > 1 {
		score = 1
	}

	return Result{Score: score, Matches: matches, Conflicts: conflicts}
}

func (HybridScorer) Confidence(score float64) domain.Confidence {
	switch {
	case score >= 0.8:
		return domain.ConfidenceHigh
	case score >= 0.65:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// entityScore is the additive entity signal used in hybrid mode. Opposite
// negation polarity carries the heaviest penalty: it flips what the
// proposition means even when every word overlaps.
func entityScore(a, b *domain.EntityBag) (score float64, matches, conflicts []string) {
	if intersects(a.YearSet, b.YearSet) {
		score += 0.2
		matches = append(matches, "shared year")
	} else if disjointNonEmpty(a.YearSet, b.YearSet) {
		score -= 0.3
		conflicts = append(conflicts, "conflicting years")
	}

	if intersects(a.NameSet, b.NameSet) {
		score += 0.25
		matches = append(matches, "shared name")
	} else if len(a.NameSet) > 0 && len(b.NameSet) > 0 {
		score -= 0.1
		conflicts = append(conflicts, "no name overlap")
	}

	if intersects(a.TopicSet, b.TopicSet) {
		score += 0.15
		matches = append(matches, "shared topic")
	}

	if intersects(a.ThresholdSet, b.ThresholdSet) {
		score += 0.15
		matches = append(matches, "shared threshold")
	} else if disjointNonEmpty(a.ThresholdSet, b.ThresholdSet) {
		score -= 0.2
		conflicts = append(conflicts, "conflicting thresholds")
	}

	if a.HasNegation != b.HasNegation {
		score -= 0.4
		conflicts = append(conflicts, "opposite negation polarity")
	}

	wordJ, _ := jaccard(a.WordSet, b.WordSet)
	score += 0.3 * wordJ

	return score, matches, conflicts
}

// ---------------------------------------------------------------------------
// Keyword scorer
// ---------------------------------------------------------------------------

// KeywordScorer is the terminal fallback: raw word-set Jaccard with no entity
// signals. Cut lines follow the lexical mode.
type KeywordScorer struct{}

func (KeywordScorer) Mode() string { return "keyword" }

func (KeywordScorer) Ready(a, b Candidate) bool { return true }

func (KeywordScorer) Score(a, b Candidate) Result {
	if a.Bag == nil || b.Bag == nil {
		return Result{}
	}
	wordJ, shared := jaccard(a.Bag.WordSet, b.Bag.WordSet)
	var matches []string
	if len(shared) > 0 {
		matches = append(matches, "shared words: "+strings.Join(shared, ", "))
	}
	return Result{Score: wordJ, Matches: matches}
}

func (KeywordScorer) Confidence(score float64) domain.Confidence {
	return LexicalScorer{}.Confidence(score)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// Cosine computes the cosine similarity of two vectors. It returns 0 when
// either vector is absent or the dimensions do not match.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// jaccard returns |A∩B|/|A∪B| plus the sorted intersection. Two empty sets
// yield 0.
func jaccard(a, b map[string]bool) (float64, []string) {
	if len(a) == 0 && len(b) == 0 {
		return 0, nil
	}
	var shared []string
	for k := range a {
		if b[k] {
			shared = append(shared, k)
		}
	}
	sort.Strings(shared)
	union := len(a) + len(b) - len(shared)
	if union == 0 {
		return 0, nil
	}
	return float64(len(shared)) / float64(union), shared
}

func intersects(a, b map[string]bool) bool {
	for k := range a {
		if b[k] {
			return true
		}
	}
	return false
}

// disjointNonEmpty reports whether both sets are non-empty with no overlap.
func disjointNonEmpty(a, b map[string]bool) bool {
	return len(a) > 0 && len(b) > 0 && !intersects(a, b)
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func setString(s map[string]bool) string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
