package matching

// Vocabulary tables used by the entity extractor. These are data, not control
// flow: scoring behavior changes only when a table changes, and the version
// below is bumped with any edit so test fixtures stay pinned to a vocabulary
// revision.
const VocabVersion = 3

// stopWords are common words removed from word sets before Jaccard scoring.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "into": true,
	"will": true, "would": true, "could": true, "should": true, "can": true,
	"may": true, "might": true, "shall": true, "must": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true,
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "their": true, "there": true,
	"than": true, "then": true, "when": true, "what": true, "which": true,
	"who": true, "how": true, "any": true, "all": true, "more": true,
	"before": true, "after": true, "during": true, "between": true,
	"above": true, "below": true, "over": true, "under": true,
}

// negationWords flip the polarity of a proposition when present.
var negationWords = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"without": true,
	"fail":    true,
	"fails":   true,
	"wont":    true, // "won't" after normalization
	"cant":    true, // "can't" after normalization
	"neither": true,
	"none":    true,
}

// nameStoplist holds capitalized bigrams that act as topic markers rather
// than entities. Stored lowercase, matched against lowercased name runs.
var nameStoplist = map[string]bool{
	"white house":       true,
	"new york":          true,
	"supreme court":     true,
	"federal reserve":   true,
	"wall street":       true,
	"united states":     true,
	"united kingdom":    true,
	"european union":    true,
	"world cup":         true,
	"super bowl":        true,
	"electoral college": true,
}

// thresholdUnits are suffixes that turn a bare number into a threshold.
var thresholdUnits = map[string]bool{
	"%":        true,
	"percent":  true,
	"million":  true,
	"billion":  true,
	"trillion": true,
	"cent":     true,
	"cents":    true,
	"dollar":   true,
	"dollars":  true,
}

// topicVocab maps domain keywords to a coarse topic tag. Two titles share a
// topic when their tag sets overlap.
var topicVocab = map[string]string{
	// politics
	"election":     "politics",
	"president":    "politics",
	"presidential": "politics",
	"senate":       "politics",
	"congress":     "politics",
	"governor":     "politics",
	"democrat":     "politics",
	"democrats":    "politics",
	"republican":   "politics",
	"republicans":  "politics",
	"impeachment":  "politics",
	"nominee":      "politics",
	"primary":      "politics",
	"vote":         "politics",
	"veto":         "politics",

	// finance / markets
	"bitcoin":  "finance",
	"btc":      "finance",
	"ethereum": "finance",
	"eth":      "finance",
	"stock":    "finance",
	"stocks":   "finance",
	"nasdaq":   "finance",
	"sp500":    "finance",
	"dow":      "finance",
	"ipo":      "finance",
	"crypto":   "finance",
	"etf":      "finance",

	// macro
	"fed":          "macro",
	"rate":         "macro",
	"rates":        "macro",
	"inflation":    "macro",
	"cpi":          "macro",
	"gdp":          "macro",
	"recession":    "macro",
	"unemployment": "macro",
	"tariff":       "macro",
	"tariffs":      "macro",
	"shutdown":     "macro",
	"debt":         "macro",

	// sports
	"nba":          "sports",
	"nfl":          "sports",
	"mlb":          "sports",
	"nhl":          "sports",
	"championship": "sports",
	"playoffs":     "sports",
	"finals":       "sports",
	"olympics":     "sports",
	"ufc":          "sports",
}
