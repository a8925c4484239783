package memory

// LessonRules is the versioned rule table the validator applies to lesson
// candidates. The closed pattern lists live here, in one place, so each
// rule can be unit-tested in isolation and revisions are traceable.
type LessonRules struct {
	Version int

	// FactPhrasings are openings of statements that belong in the
	// symbolic tier. A lesson containing any of them is rejected.
	FactPhrasings []string

	// AbstractionMarkers are causal, comparative or prescriptive words.
	// A lesson containing none of them is a raw observation, not a
	// strategy, and is rejected.
	AbstractionMarkers []string

	// MaxLessonLen is the extractor-level length ceiling. The store
	// enforces its own, looser ceiling independently.
	MaxLessonLen int

	// MinConfidence is the floor below which a candidate is silently
	// discarded rather than rejected.
	MinConfidence float64
}

// DefaultLessonRules returns rule table version 1.
func DefaultLessonRules() LessonRules {
	return LessonRules{
		Version: 1,
		FactPhrasings: []string{
			"project uses",
			"user prefers",
			"file contains",
			"repo uses",
			"repository uses",
			"directory contains",
			"codebase has",
			"is located in",
			"is version",
			"is configured to",
		},
		AbstractionMarkers: []string{
			"should",
			"avoid",
			"prefer",
			"before",
			"after",
			"causes",
			"leads to",
			"results in",
			"better",
			"worse",
			"instead",
			"rather than",
			"always",
			"never",
			"ensure",
			"when",
			"helps",
		},
		MaxLessonLen:  500,
		MinConfidence: 0.6,
	}
}
