package memory

import (
	"math"
	"regexp"
	"time"
)

// ─── Scopes ──────────────────────────────────────────────────────────────────

// Canonical scopes, in authority order: the more locally-scoped a fact,
// the higher its priority during selection.
const (
	ScopeSession = "session"
	ScopeProject = "project"
	ScopeUser    = "user"
	ScopeOrg     = "org"
)

// scopePattern is the accepted shape for any scope identifier.
var scopePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,150}$`)

// scopePriority maps a scope to its selection priority. Lower wins.
// Valid but non-canonical scopes sort after org.
func scopePriority(scope string) int {
	switch scope {
	case ScopeSession:
		return 0
	case ScopeProject:
		return 1
	case ScopeUser:
		return 2
	case ScopeOrg:
		return 3
	default:
		return 4
	}
}

// ─── Categories and sources ──────────────────────────────────────────────────

// Fact categories — a closed set.
const (
	CategoryPreference = "preference"
	CategoryConstraint = "constraint"
	CategoryDecision   = "decision"
	CategoryFact       = "fact"
)

var validCategories = map[string]bool{
	CategoryPreference: true,
	CategoryConstraint: true,
	CategoryDecision:   true,
	CategoryFact:       true,
}

// Fact sources — who asserted the fact.
const (
	SourceUser  = "user"
	SourceAgent = "agent"
	SourceTool  = "tool"
)

var validSources = map[string]bool{
	SourceUser:  true,
	SourceAgent: true,
	SourceTool:  true,
}

// ─── Fact ────────────────────────────────────────────────────────────────────

// Fact is one durable symbolic memory entry. At most one fact exists per
// (scope, key) pair at any time.
type Fact struct {
	ID         string  `json:"id"`
	Scope      string  `json:"scope"`
	Category   string  `json:"category"`
	Key        string  `json:"key"`
	Value      Value   `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// validateFact checks scope shape, closed sets, key presence and the
// value payload. Confidence is clamped, not rejected, unless it is not
// a number at all.
func validateFact(f *Fact) error {
	if f.Key == "" {
		return &ValidationError{Field: "key", Reason: "must not be empty"}
	}
	if !scopePattern.MatchString(f.Scope) {
		return &ValidationError{Field: "scope", Reason: "must be 1-150 chars of letters, digits, '-' or '_'"}
	}
	if !validCategories[f.Category] {
		return &ValidationError{Field: "category", Reason: "must be one of preference, constraint, decision, fact"}
	}
	if !validSources[f.Source] {
		return &ValidationError{Field: "source", Reason: "must be one of user, agent, tool"}
	}
	if math.IsNaN(f.Confidence) || math.IsInf(f.Confidence, 0) {
		return &ValidationError{Field: "confidence", Reason: "must be a finite number"}
	}
	if f.Value.IsZero() {
		return &ValidationError{Field: "value", Reason: "must not be empty"}
	}
	f.Confidence = clampConfidence(f.Confidence)
	return nil
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// timeNow is a hook so retention tests can back-date rows.
var timeNow = func() time.Time { return time.Now().UTC() }

// Now returns the current UTC time in the fixed-width format used for
// all timestamps. The width is constant so lexicographic order matches
// chronological order, which the selector's tie-breaking relies on.
func Now() string {
	return timeNow().Format(timeLayout)
}

const timeLayout = "2006-01-02 15:04:05.000000000"
