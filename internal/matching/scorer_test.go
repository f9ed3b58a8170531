package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(title string, vector []float32) Candidate {
	return Candidate{
		Bag:    NewExtractor().Extract(title),
		Vector: vector,
	}
}

func TestLexical_Identity(t *testing.T) {
	titles := []string{
		"Will BTC hit $100k by 2026?",
		"Trump wins the 2024 election",
		"x",
	}
	for _, s := range titles {
		res := LexicalScorer{}.Score(candidate(s, nil), candidate(s, nil))
		assert.Equal(t, 1.0, res.Score, "title %q", s)
	}
}

func TestLexical_EmptyNormalizationScoresZero(t *testing.T) {
	// All-punctuation titles normalize to an empty bag; with no words to
	// compare there is no evidence of a shared proposition, so even
	// self-comparison scores zero rather than an exact match.
	res := LexicalScorer{}.Score(candidate("!!!", nil), candidate("!!!", nil))
	assert.Equal(t, 0.0, res.Score)
}

func TestLexical_Symmetry(t *testing.T) {
	a := candidate("Will the Fed cut rates in March 2026?", nil)
	b := candidate("Fed rate cut announced before April 2026", nil)
	ab := LexicalScorer{}.Score(a, b)
	ba := LexicalScorer{}.Score(b, a)
	assert.Equal(t, ab.Score, ba.Score)
}

func TestLexical_Containment(t *testing.T) {
	a := candidate("Will Bitcoin reach $100k", nil)
	b := candidate("Will Bitcoin reach $100k by end of the year", nil)
	res := LexicalScorer{}.Score(a, b)
	assert.Equal(t, 0.85, res.Score)
}

func TestLexical_YearGate(t *testing.T) {
	a := candidate("US recession declared by 2026", nil)
	b := candidate("US recession declared by 2030", nil)
	res := LexicalScorer{}.Score(a, b)
	assert.Equal(t, 0.0, res.Score)
	require.NotEmpty(t, res.Conflicts)
	assert.Contains(t, res.Conflicts[0], "different years")
}

func TestLexical_WeightedJaccard(t *testing.T) {
	a := candidate("alpha beta gamma", nil)
	b := candidate("alpha beta delta", nil)
	// wordJaccard = 2/4, no names, no numbers.
	res := LexicalScorer{}.Score(a, b)
	assert.InDelta(t, 0.6*0.5, res.Score, 1e-9)
}

func TestLexical_EmptySets(t *testing.T) {
	a := candidate("of the", nil)
	b := candidate("in an", nil)
	res := LexicalScorer{}.Score(a, b)
	assert.Equal(t, 0.0, res.Score)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, Cosine(nil, []float32{1}))
	assert.Equal(t, 0.0, Cosine([]float32{1, 2}, []float32{1}))
}

func TestHybrid_PruneLowCosine(t *testing.T) {
	a := candidate("Will the Fed cut rates in 2026?", []float32{1, 0})
	b := candidate("Will the Fed cut rates in 2026?", []float32{0.3, 0.954})
	res := HybridScorer{}.Score(a, b)
	assert.True(t, res.Pruned)
}

func TestHybrid_PruneMultipleConflicts(t *testing.T) {
	// Conflicting years and opposite negation: two conflict categories.
	a := candidate("Will inflation fall by 2026?", []float32{1, 0})
	b := candidate("Will inflation not fall by 2030?", []float32{1, 0})
	res := HybridScorer{}.Score(a, b)
	assert.True(t, res.Pruned)
	assert.GreaterOrEqual(t, len(res.Conflicts), 2)
}

func TestHybrid_ScoreBlend(t *testing.T) {
	a := candidate("Fed cuts rates March 2026", []float32{1, 0})
	b := candidate("Fed cuts rates March 2026", []float32{1, 0})
	res := HybridScorer{}.Score(a, b)
	require.False(t, res.Pruned)
	// cos=1, entity=0.2(year)+0.15(topic)+0.3·1(words)=0.65, wordJ=1:
	// 0.6 + 0.4·0.65 + 0.1 = 0.96.
	assert.InDelta(t, 0.96, res.Score, 1e-9)
	assert.Contains(t, res.Matches, "shared year")
	assert.Contains(t, res.Matches, "shared topic")
}

func TestHybrid_NegationPenalty(t *testing.T) {
	a := candidate("Congress passes the budget in 2026", []float32{1, 0})
	b := candidate("Congress never passes the budget in 2026", []float32{1, 0})
	res := HybridScorer{}.Score(a, b)
	require.False(t, res.Pruned)
	assert.Contains(t, res.Conflicts, "opposite negation polarity")

	same := HybridScorer{}.Score(a, candidate("Congress passes the budget in 2026", []float32{1, 0}))
	assert.Less(t, res.Score, same.Score)
}

func TestChain_FallbackOrder(t *testing.T) {
	chain := NewChain(HybridScorer{}, LexicalScorer{}, KeywordScorer{})

	withVecs := chain.Pick(candidate("a b", []float32{1}), candidate("a b", []float32{1}))
	assert.Equal(t, "hybrid", withVecs.Mode())

	noVecs := chain.Pick(candidate("a b", nil), candidate("a b", nil))
	assert.Equal(t, "lexical", noVecs.Mode())

	bare := chain.Pick(Candidate{}, Candidate{})
	assert.Equal(t, "keyword", bare.Mode())
}

func TestConfidenceCutLines(t *testing.T) {
	lex := LexicalScorer{}
	assert.Equal(t, "high", string(lex.Confidence(0.7)))
	assert.Equal(t, "medium", string(lex.Confidence(0.5)))
	assert.Equal(t, "low", string(lex.Confidence(0.49)))

	hyb := HybridScorer{}
	assert.Equal(t, "high", string(hyb.Confidence(0.8)))
	assert.Equal(t, "medium", string(hyb.Confidence(0.65)))
	assert.Equal(t, "low", string(hyb.Confidence(0.64)))
}
