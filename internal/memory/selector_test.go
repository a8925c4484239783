package memory_test

import (
	"testing"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource feeds the selector a fixed candidate list, applying the
// same confidence floor the real store's Query would.
type fakeSource struct {
	facts []memory.Fact
}

func (f *fakeSource) Query(filter memory.FactFilter) ([]memory.Fact, error) {
	var out []memory.Fact
	for _, fact := range f.facts {
		if filter.MinConfidence > 0 && fact.Confidence < filter.MinConfidence {
			continue
		}
		if len(filter.Scopes) > 0 && !containsString(filter.Scopes, fact.Scope) {
			continue
		}
		out = append(out, fact)
	}
	return out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func fact(id, scope, category, key, value string, confidence float64, updatedAt string) memory.Fact {
	return memory.Fact{
		ID:         id,
		Scope:      scope,
		Category:   category,
		Key:        key,
		Value:      memory.StringValue(value),
		Confidence: confidence,
		Source:     memory.SourceUser,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
}

func TestSelector_ScopePriorityOrdering(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeOrg, memory.CategoryPreference, "a", "1", 0.9, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeSession, memory.CategoryPreference, "b", "2", 0.5, "2026-01-01 00:00:00.000000000"),
		fact("f3", memory.ScopeUser, memory.CategoryPreference, "c", "3", 0.7, "2026-01-01 00:00:00.000000000"),
		fact("f4", memory.ScopeProject, memory.CategoryPreference, "d", "4", 0.6, "2026-01-01 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)
	require.Len(t, result.Facts, 4)

	// Locally-scoped facts first, regardless of confidence.
	got := []string{result.Facts[0].ID, result.Facts[1].ID, result.Facts[2].ID, result.Facts[3].ID}
	assert.Equal(t, []string{"f2", "f4", "f3", "f1"}, got)
}

func TestSelector_CategoryRelevance(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "theme", "dark", 0.9, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryFact, "language", "go", 0.9, "2026-01-01 00:00:00.000000000"),
		fact("f3", memory.ScopeUser, memory.CategoryDecision, "framework", "stdlib", 0.9, "2026-01-01 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	coding, err := sel.Select(memory.SelectionRequest{RequestCategory: "coding"})
	require.NoError(t, err)
	require.Len(t, coding.Facts, 2, "coding drops the plain fact category")
	for _, f := range coding.Facts {
		assert.NotEqual(t, memory.CategoryFact, f.Category)
	}

	formatOnly, err := sel.Select(memory.SelectionRequest{RequestCategory: "output_format"})
	require.NoError(t, err)
	require.Len(t, formatOnly.Facts, 1)
	assert.Equal(t, memory.CategoryPreference, formatOnly.Facts[0].Category)

	general, err := sel.Select(memory.SelectionRequest{RequestCategory: "general"})
	require.NoError(t, err)
	assert.Len(t, general.Facts, 3)

	// Unknown request categories admit everything.
	unknown, err := sel.Select(memory.SelectionRequest{RequestCategory: "interpretive_dance"})
	require.NoError(t, err)
	assert.Len(t, unknown.Facts, 3)
}

func TestSelector_ConflictResolution(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "theme", "dark", 0.8, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryPreference, "theme", "light", 0.6, "2026-01-02 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)

	require.Len(t, result.Facts, 1, "true conflict keeps exactly one member")
	assert.Equal(t, "f1", result.Facts[0].ID, "highest confidence wins")

	require.Len(t, result.Conflicts, 1)
	c := result.Conflicts[0]
	assert.True(t, c.ResolutionNeeded)
	assert.Equal(t, "f1", c.KeptID)
	assert.Equal(t, []string{"f2"}, c.SuppressedIDs)
	assert.Equal(t, 1, result.Meta.ConflictsDetected)
}

func TestSelector_ConflictTieBrokenByRecency(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "theme", "dark", 0.8, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryPreference, "theme", "light", 0.8, "2026-01-05 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "f2", result.Facts[0].ID, "equal confidence falls back to most recent update")
}

func TestSelector_DuplicatesPassThrough(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "theme", "Dark", 0.8, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryPreference, "theme", "dark", 0.6, "2026-01-02 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)

	assert.Len(t, result.Facts, 2, "equal normalized values are not conflict-pruned")
	require.Len(t, result.Conflicts, 1)
	assert.False(t, result.Conflicts[0].ResolutionNeeded, "same value twice is a duplicate, not a conflict")
	assert.Equal(t, 0, result.Meta.ConflictsDetected)
}

func TestSelector_AllowConflictsKeepsAll(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "theme", "dark", 0.8, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryPreference, "theme", "light", 0.6, "2026-01-02 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{AllowConflicts: true})
	require.NoError(t, err)
	assert.Len(t, result.Facts, 2)
	require.Len(t, result.Conflicts, 1)
	assert.True(t, result.Conflicts[0].ResolutionNeeded)
	assert.Empty(t, result.Conflicts[0].KeptID)
}

func TestSelector_MaxFactsBound(t *testing.T) {
	var facts []memory.Fact
	for i := 0; i < 20; i++ {
		facts = append(facts, fact(
			string(rune('a'+i)), memory.ScopeUser, memory.CategoryPreference,
			string(rune('a'+i)), "v", 0.9, "2026-01-01 00:00:00.000000000"))
	}
	sel := memory.NewSelector(&fakeSource{facts: facts}, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 5})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)
	assert.Len(t, result.Facts, 5)
	assert.Equal(t, 20, result.Meta.TotalCandidates)
	assert.Equal(t, 5, result.Meta.Selected)
}

func TestSelector_ConfidenceFloor(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "a", "1", 0.9, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryPreference, "b", "2", 0.2, "2026-01-01 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.5, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)
	require.Len(t, result.Facts, 1)
	assert.Equal(t, "f1", result.Facts[0].ID)
}

func TestSelector_EmptyResultIsNotAnError(t *testing.T) {
	sel := memory.NewSelector(&fakeSource{}, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)
	assert.Empty(t, result.Facts)
	assert.Equal(t, 0, result.Meta.TotalCandidates)
	assert.NotEmpty(t, result.Meta.Explanation)
}

func TestSelector_Deterministic(t *testing.T) {
	src := &fakeSource{facts: []memory.Fact{
		fact("f1", memory.ScopeUser, memory.CategoryPreference, "theme", "dark", 0.8, "2026-01-01 00:00:00.000000000"),
		fact("f2", memory.ScopeUser, memory.CategoryPreference, "theme", "light", 0.6, "2026-01-02 00:00:00.000000000"),
		fact("f3", memory.ScopeSession, memory.CategoryDecision, "editor", "vim", 0.7, "2026-01-03 00:00:00.000000000"),
		fact("f4", memory.ScopeOrg, memory.CategoryConstraint, "license", "mit", 0.9, "2026-01-04 00:00:00.000000000"),
	}}
	sel := memory.NewSelector(src, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})

	req := memory.SelectionRequest{RequestCategory: "coding"}
	first, err := sel.Select(req)
	require.NoError(t, err)
	second, err := sel.Select(req)
	require.NoError(t, err)

	assert.Equal(t, first, second, "selection must be reproducible from identical inputs")
}

// TestSelector_ThemeScenario exercises the end-to-end path on a real
// store: because the store already keeps only the highest-confidence
// fact per (scope, key), the second write is a no-op and selection
// returns the surviving fact.
func TestSelector_ThemeScenario(t *testing.T) {
	store := newFactStore(t)

	if _, err := store.Store(userFact("theme", "dark", 0.8)); err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if _, err := store.Store(userFact("theme", "light", 0.6)); err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	sel := memory.NewSelector(store, memory.SelectorConfig{MinConfidence: 0.3, MaxFacts: 10})
	result, err := sel.Select(memory.SelectionRequest{})
	require.NoError(t, err)

	require.Len(t, result.Facts, 1)
	var v string
	require.NoError(t, result.Facts[0].Value.Decode(&v))
	assert.Equal(t, "dark", v)
}
