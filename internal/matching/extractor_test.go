package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "will btc hit 100k by 2026", Normalize("Will BTC hit $100k by 2026?"))
	assert.Equal(t, "", Normalize("!!!"))
}

func TestExtract_Years(t *testing.T) {
	bag := NewExtractor().Extract("Will Trump win the 2024 election by 2025?")
	assert.True(t, bag.YearSet["2024"])
	assert.True(t, bag.YearSet["2025"])
	assert.Len(t, bag.YearSet, 2)
}

func TestExtract_YearRangeBounds(t *testing.T) {
	bag := NewExtractor().Extract("In 1999 or 2101 there were 2000 and 2100 things")
	assert.False(t, bag.YearSet["1999"])
	assert.False(t, bag.YearSet["2101"])
	assert.True(t, bag.YearSet["2000"])
	assert.True(t, bag.YearSet["2100"])
}

func TestExtract_Names(t *testing.T) {
	bag := NewExtractor().Extract("Will Donald Trump meet Elon Musk in Washington?")
	assert.True(t, bag.NameSet["donald trump"])
	assert.True(t, bag.NameSet["elon musk"])
	// Single capitalized words are not names.
	assert.False(t, bag.NameSet["washington"])
}

func TestExtract_NameStoplist(t *testing.T) {
	bag := NewExtractor().Extract("Will the White House confirm a New York visit?")
	assert.False(t, bag.NameSet["white house"])
	assert.False(t, bag.NameSet["new york"])
}

func TestExtract_Thresholds(t *testing.T) {
	bag := NewExtractor().Extract("Will inflation exceed 5 percent or 3 billion in damages?")
	assert.True(t, bag.ThresholdSet["5 percent"])
	assert.True(t, bag.ThresholdSet["3 billion"])
	assert.True(t, bag.NumberSet["5"])
	assert.True(t, bag.NumberSet["3"])
}

func TestExtract_SymbolThresholds(t *testing.T) {
	bag := NewExtractor().Extract("Will CPI rise 4% while gas stays under $5?")
	assert.True(t, bag.ThresholdSet["4 percent"])
	assert.True(t, bag.ThresholdSet["5 dollars"])
}

func TestExtract_Topics(t *testing.T) {
	bag := NewExtractor().Extract("Will the Fed cut rates before the election?")
	assert.True(t, bag.TopicSet["macro"])
	assert.True(t, bag.TopicSet["politics"])
}

func TestExtract_Negation(t *testing.T) {
	e := NewExtractor()
	assert.True(t, e.Extract("Will Congress not pass the bill?").HasNegation)
	assert.True(t, e.Extract("Trump won't attend the debate").HasNegation)
	assert.False(t, e.Extract("Will Congress pass the bill?").HasNegation)
}

func TestExtract_WordSet(t *testing.T) {
	bag := NewExtractor().Extract("Will the Fed cut rates in December?")
	// Stop words and short tokens are dropped.
	assert.False(t, bag.WordSet["the"])
	assert.False(t, bag.WordSet["in"])
	assert.False(t, bag.WordSet["will"])
	assert.True(t, bag.WordSet["fed"])
	assert.True(t, bag.WordSet["cut"])
	assert.True(t, bag.WordSet["rates"])
	assert.True(t, bag.WordSet["december"])
}

func TestExtract_Pure(t *testing.T) {
	e := NewExtractor()
	first := e.Extract("Will Bitcoin reach $100,000 by 2026?")
	second := e.Extract("Will Bitcoin reach $100,000 by 2026?")
	require.Equal(t, first, second)
}
