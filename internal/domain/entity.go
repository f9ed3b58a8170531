package domain

// EntityBag is the structured extraction from one market title. Bags are
// computed once per title per matching pass and never mutated afterwards.
type EntityBag struct {
	NormalizedText string
	WordSet        map[string]bool
	YearSet        map[string]bool
	NameSet        map[string]bool
	NumberSet      map[string]bool
	ThresholdSet   map[string]bool
	TopicSet       map[string]bool
	HasNegation    bool
}
