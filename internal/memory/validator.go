package memory

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Candidate is a raw lesson record, typically produced by an external
// LLM collaborator, before it has passed any gate.
type Candidate struct {
	Situation  string  `json:"situation"`
	Action     string  `json:"action"`
	Outcome    string  `json:"outcome"`
	Lesson     string  `json:"lesson"`
	Confidence float64 `json:"confidence"`
}

// Validator is the sole gate between candidate lessons and the episode
// store. It emits either a fully validated Episode or nothing — never a
// partially valid record.
type Validator struct {
	rules LessonRules
}

// NewValidator creates a validator over a rule table.
func NewValidator(rules LessonRules) *Validator {
	return &Validator{rules: rules}
}

// Rules returns the rule table the validator applies.
func (v *Validator) Rules() LessonRules { return v.rules }

// Validate applies every rule to a candidate. A candidate below the
// confidence floor is discarded silently (nil, nil) — no episode
// qualifies, which is not an error. Every other failure is a
// ValidationError naming the offending field.
func (v *Validator) Validate(c Candidate) (*Episode, error) {
	for field, text := range map[string]string{
		"situation": c.Situation,
		"action":    c.Action,
		"outcome":   c.Outcome,
		"lesson":    c.Lesson,
	} {
		if strings.TrimSpace(text) == "" {
			return nil, &ValidationError{Field: field, Reason: "must not be empty"}
		}
	}
	if math.IsNaN(c.Confidence) || c.Confidence < 0 || c.Confidence > 1 {
		return nil, &ValidationError{Field: "confidence", Reason: "must be in [0, 1]"}
	}
	if len(c.Lesson) > v.rules.MaxLessonLen {
		return nil, &ValidationError{Field: "lesson", Reason: "exceeds extractor length ceiling"}
	}

	lesson := strings.TrimSpace(c.Lesson)
	if strings.EqualFold(lesson, strings.TrimSpace(c.Situation)) {
		return nil, &ValidationError{Field: "lesson", Reason: "verbatim copy of the situation"}
	}

	lower := strings.ToLower(lesson)
	for _, phrase := range v.rules.FactPhrasings {
		if strings.Contains(lower, phrase) {
			return nil, &ValidationError{Field: "lesson", Reason: "fact-shaped phrasing (" + phrase + ") belongs in the symbolic tier"}
		}
	}

	abstract := false
	for _, marker := range v.rules.AbstractionMarkers {
		if strings.Contains(lower, marker) {
			abstract = true
			break
		}
	}
	if !abstract {
		return nil, &ValidationError{Field: "lesson", Reason: "no generalizing language; reads as a raw observation"}
	}

	if c.Confidence < v.rules.MinConfidence {
		// Below the floor: no episode qualifies. Not an error.
		return nil, nil
	}

	return &Episode{
		ID:         uuid.NewString(),
		Situation:  c.Situation,
		Action:     c.Action,
		Outcome:    c.Outcome,
		Lesson:     lesson,
		Confidence: c.Confidence,
		CreatedAt:  Now(),
	}, nil
}
