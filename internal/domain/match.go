package domain

// Confidence is the coarse bucketing of a similarity score.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// MatchDetails carries the operator-facing explanation of why two titles were
// judged to be (or not be) the same proposition.
type MatchDetails struct {
	Matches   []string `json:"matches"`
	Conflicts []string `json:"conflicts"`
}

// MatchedPair links one market from each venue judged to represent the same
// real-world proposition. Within a single matching pass each market ID appears
// in at most one pair.
type MatchedPair struct {
	Kalshi     Market       `json:"kalshi"`
	Polymarket Market       `json:"polymarket"`
	Similarity float64      `json:"similarity"`
	Confidence Confidence   `json:"confidence"`
	Details    MatchDetails `json:"details"`
}
