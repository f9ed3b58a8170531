// Package matching implements the matching half of the arbitrage pipeline:
// entity extraction from market titles, similarity scoring (lexical and
// hybrid with embeddings), and greedy one-to-one cross-venue assignment.
package matching

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/archithvenkatesh/arbitrage-bot/internal/domain"
)

var (
	apostropheRe = regexp.MustCompile(`['’]`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9 ]+`)
	multiSpace   = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`\$?\d+(?:\.\d+)?`)
	nameTokenRe  = regexp.MustCompile(`^[A-Z][a-zA-Z'.-]*$`)
)

// Extractor turns a market title into an EntityBag. It is a pure function of
// the input string: no I/O, no shared state, safe for concurrent use.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Normalize lowercases a title, replaces everything outside [a-z0-9 ] with
// spaces, collapses runs of whitespace, and trims.
func Normalize(title string) string {
	s := strings.ToLower(title)
	// Drop apostrophes before the sweep so contractions collapse ("won't"
	// becomes "wont", not "won t").
	s = apostropheRe.ReplaceAllString(s, "")
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Extract builds the EntityBag for a title.
func (e *Extractor) Extract(title string) *domain.EntityBag {
	normalized := Normalize(title)
	tokens := strings.Fields(normalized)

	bag := &domain.EntityBag{
		NormalizedText: normalized,
		WordSet:        make(map[string]bool),
		YearSet:        make(map[string]bool),
		NameSet:        extractNames(title),
		NumberSet:      make(map[string]bool),
		ThresholdSet:   make(map[string]bool),
		TopicSet:       make(map[string]bool),
	}

	for i, tok := range tokens {
		if isYear(tok) {
			bag.YearSet[tok] = true
		}
		if negationWords[tok] {
			bag.HasNegation = true
		}
		if topic, ok := topicVocab[tok]; ok {
			bag.TopicSet[topic] = true
		}
		if isNumeric(tok) {
			bag.NumberSet[tok] = true
			if i+1 < len(tokens) && thresholdUnits[tokens[i+1]] {
				bag.ThresholdSet[tok+" "+tokens[i+1]] = true
			}
		}
		if len(tok) > 2 && !stopWords[tok] {
			bag.WordSet[tok] = true
		}
	}

	// Normalization strips "%" and "$", so thresholds expressed with symbols
	// have to be recovered from the raw title.
	extractSymbolThresholds(title, bag)

	return bag
}

// extractNames finds runs of two or more consecutive capitalized words in the
// original (non-normalized) title, lowercases them, and drops stoplisted
// bigrams that mark topics rather than entities.
func extractNames(title string) map[string]bool {
	names := make(map[string]bool)
	words := strings.Fields(title)

	var run []string
	flush := func() {
		if len(run) >= 2 {
			name := strings.ToLower(strings.Join(run, " "))
			if !nameStoplist[name] {
				names[name] = true
			}
		}
		run = run[:0]
	}

	for _, w := range words {
		trimmed := strings.Trim(w, `"',.!?:;()[]`)
		if trimmed != "" && nameTokenRe.MatchString(trimmed) {
			run = append(run, strings.TrimRight(trimmed, ".'-"))
			continue
		}
		flush()
	}
	flush()

	return names
}

// extractSymbolThresholds scans the raw title for numbers carrying a % or $
// marker and records them as thresholds.
func extractSymbolThresholds(title string, bag *domain.EntityBag) {
	lower := strings.ToLower(title)
	for _, loc := range numberRe.FindAllStringIndex(lower, -1) {
		tok := lower[loc[0]:loc[1]]
		if strings.HasPrefix(tok, "$") {
			bag.ThresholdSet[strings.TrimPrefix(tok, "$")+" dollars"] = true
			continue
		}
		if loc[1] < len(lower) && lower[loc[1]] == '%' {
			bag.ThresholdSet[tok+" percent"] = true
		}
	}
}

func isYear(tok string) bool {
	if len(tok) != 4 {
		return false
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return false
	}
	return n >= 2000 && n <= 2100
}

func isNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
