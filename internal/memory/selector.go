package memory

import (
	"fmt"
	"sort"
	"strings"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// FactSource is the read-only slice of FactStore the selector depends on.
type FactSource interface {
	Query(filter FactFilter) ([]Fact, error)
}

// SelectorConfig bounds a selection.
type SelectorConfig struct {
	MinConfidence float64
	MaxFacts      int
}

// DefaultSelectorConfig returns the standard selection bounds.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{MinConfidence: 0.3, MaxFacts: 10}
}

// SelectionRequest describes one selection call.
type SelectionRequest struct {
	Scopes          []string `json:"scopes,omitempty"`           // empty = all scopes
	RequestCategory string   `json:"request_category,omitempty"` // empty = general
	AllowConflicts  bool     `json:"allow_conflicts,omitempty"`
}

// Conflict describes a group of facts sharing (scope, key). When the
// normalized values differ it is a true conflict (ResolutionNeeded);
// equal values make it a harmless duplicate group.
type Conflict struct {
	Scope            string   `json:"scope"`
	Key              string   `json:"key"`
	FactIDs          []string `json:"fact_ids"`
	ResolutionNeeded bool     `json:"resolution_needed"`
	KeptID           string   `json:"kept_id,omitempty"`
	KeptValue        string   `json:"kept_value,omitempty"`
	SuppressedIDs    []string `json:"suppressed_ids,omitempty"`
	Reason           string   `json:"reason,omitempty"`
}

// SelectionMeta explains how a selection was produced. For identical
// store contents and request, every field is identical across runs.
type SelectionMeta struct {
	TotalCandidates   int    `json:"total_candidates"`
	AfterConfidence   int    `json:"after_confidence"`
	ConflictsDetected int    `json:"conflicts_detected"`
	Selected          int    `json:"selected"`
	Explanation       string `json:"explanation"`
}

// Selection is the bounded, conflict-free result set a prompt may treat
// as ground truth.
type Selection struct {
	Facts     []Fact        `json:"facts"`
	Conflicts []Conflict    `json:"conflicts,omitempty"`
	Meta      SelectionMeta `json:"meta"`
}

const conflictReason = "highest confidence wins; ties broken by most recent update"

// ─── Selector ────────────────────────────────────────────────────────────────

// Selector turns the raw fact corpus into a bounded, explainable,
// deterministic context. It never writes.
type Selector struct {
	src FactSource
	cfg SelectorConfig
}

// NewSelector creates a selector over a fact source.
func NewSelector(src FactSource, cfg SelectorConfig) *Selector {
	if cfg.MaxFacts <= 0 {
		cfg.MaxFacts = DefaultSelectorConfig().MaxFacts
	}
	return &Selector{src: src, cfg: cfg}
}

// Select runs the full selection pipeline: candidate query, scope
// priority ordering, category relevance, conflict detection and
// resolution, final ordering and truncation. An empty selection with
// populated metadata is a valid outcome, not an error.
func (sel *Selector) Select(req SelectionRequest) (*Selection, error) {
	candidates, err := sel.src.Query(FactFilter{
		Scopes:        req.Scopes,
		MinConfidence: sel.cfg.MinConfidence,
	})
	if err != nil {
		return nil, err
	}
	total := len(candidates)

	// Deterministic working order: scope priority first, then the final
	// sort key, so every later step sees the same sequence.
	sortFacts(candidates)

	if admitted := relevantCategories(req.RequestCategory); admitted != nil {
		kept := candidates[:0]
		for _, f := range candidates {
			if admitted[f.Category] {
				kept = append(kept, f)
			}
		}
		candidates = kept
	}

	// Defensive re-check; Query already applied the floor.
	kept := candidates[:0]
	for _, f := range candidates {
		if f.Confidence >= sel.cfg.MinConfidence {
			kept = append(kept, f)
		}
	}
	candidates = kept
	afterConfidence := len(candidates)

	facts, conflicts := resolveConflicts(candidates, req.AllowConflicts)

	sortFacts(facts)
	if len(facts) > sel.cfg.MaxFacts {
		facts = facts[:sel.cfg.MaxFacts]
	}

	trueConflicts := 0
	for _, c := range conflicts {
		if c.ResolutionNeeded {
			trueConflicts++
		}
	}

	meta := SelectionMeta{
		TotalCandidates:   total,
		AfterConfidence:   afterConfidence,
		ConflictsDetected: trueConflicts,
		Selected:          len(facts),
	}
	meta.Explanation = explain(facts, meta, sel.cfg)

	return &Selection{Facts: facts, Conflicts: conflicts, Meta: meta}, nil
}

// sortFacts orders facts by scope priority ASC, confidence DESC, with
// updated_at, key and id as deterministic tie-breaks.
func sortFacts(facts []Fact) {
	sort.SliceStable(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		if pa, pb := scopePriority(a.Scope), scopePriority(b.Scope); pa != pb {
			return pa < pb
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.UpdatedAt != b.UpdatedAt {
			return a.UpdatedAt > b.UpdatedAt
		}
		if a.Key != b.Key {
			return a.Key < b.Key
		}
		return a.ID < b.ID
	})
}

// resolveConflicts groups facts by (scope, key) and, unless allowed
// through, keeps exactly one member of each true-conflict group: the
// highest confidence, ties broken by most recent updated_at. Duplicate
// groups (equal normalized values) pass through untouched.
func resolveConflicts(candidates []Fact, allowConflicts bool) ([]Fact, []Conflict) {
	type groupKey struct{ scope, key string }
	groups := make(map[groupKey][]Fact)
	order := make([]groupKey, 0, len(candidates))
	for _, f := range candidates {
		k := groupKey{f.Scope, f.Key}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	var facts []Fact
	var conflicts []Conflict
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			facts = append(facts, group[0])
			continue
		}

		ids := make([]string, len(group))
		for i, f := range group {
			ids[i] = f.ID
		}
		sort.Strings(ids)

		distinct := false
		base := group[0].Value.Normalized()
		for _, f := range group[1:] {
			if f.Value.Normalized() != base {
				distinct = true
				break
			}
		}

		if !distinct {
			// Same value stored more than once: no disagreement, keep all.
			conflicts = append(conflicts, Conflict{
				Scope: k.scope, Key: k.key, FactIDs: ids,
			})
			facts = append(facts, group...)
			continue
		}

		c := Conflict{
			Scope: k.scope, Key: k.key, FactIDs: ids,
			ResolutionNeeded: true,
		}
		if allowConflicts {
			facts = append(facts, group...)
			conflicts = append(conflicts, c)
			continue
		}

		winner := group[0]
		for _, f := range group[1:] {
			if f.Confidence > winner.Confidence ||
				(f.Confidence == winner.Confidence && f.UpdatedAt > winner.UpdatedAt) {
				winner = f
			}
		}
		c.KeptID = winner.ID
		c.KeptValue = winner.Value.JSON()
		for _, id := range ids {
			if id != winner.ID {
				c.SuppressedIDs = append(c.SuppressedIDs, id)
			}
		}
		c.Reason = conflictReason
		conflicts = append(conflicts, c)
		facts = append(facts, winner)
	}

	return facts, conflicts
}

// explain builds the human-readable summary of a selection. The wording
// is fixed and every aggregate is emitted in a fixed order, so the same
// inputs always produce the same string.
func explain(facts []Fact, meta SelectionMeta, cfg SelectorConfig) string {
	if len(facts) == 0 {
		return fmt.Sprintf("no facts selected (%d candidates, confidence floor %.2f)",
			meta.TotalCandidates, cfg.MinConfidence)
	}

	byScope := map[string]int{}
	byCategory := map[string]int{}
	sum := 0.0
	for _, f := range facts {
		byScope[f.Scope]++
		byCategory[f.Category]++
		sum += f.Confidence
	}

	var b strings.Builder
	fmt.Fprintf(&b, "selected %d of %d candidates", meta.Selected, meta.TotalCandidates)
	if meta.ConflictsDetected > 0 {
		fmt.Fprintf(&b, " (%d conflict(s) resolved)", meta.ConflictsDetected)
	}
	fmt.Fprintf(&b, "; scopes: %s", countSummary(byScope, scopeOrder(byScope)))
	fmt.Fprintf(&b, "; categories: %s", countSummary(byCategory, sortedKeys(byCategory)))
	fmt.Fprintf(&b, "; avg confidence %.2f", sum/float64(len(facts)))
	return b.String()
}

// scopeOrder lists present scopes in authority order, non-canonical
// scopes last in alphabetical order.
func scopeOrder(counts map[string]int) []string {
	keys := sortedKeys(counts)
	sort.SliceStable(keys, func(i, j int) bool {
		if pi, pj := scopePriority(keys[i]), scopePriority(keys[j]); pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func countSummary(counts map[string]int, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
