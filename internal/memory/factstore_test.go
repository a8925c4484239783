package memory_test

import (
	"errors"
	"testing"

	"github.com/HendryAvila/mnemo/internal/memory"
)

// newFactStore creates a FactStore backed by a temp directory.
func newFactStore(t *testing.T) *memory.FactStore {
	t.Helper()
	db, err := memory.OpenDB(t.TempDir())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	s, err := memory.NewFactStore(db)
	if err != nil {
		t.Fatalf("failed to create fact store: %v", err)
	}
	return s
}

func userFact(key, value string, confidence float64) memory.Fact {
	return memory.Fact{
		Scope:      memory.ScopeUser,
		Category:   memory.CategoryPreference,
		Key:        key,
		Value:      memory.StringValue(value),
		Confidence: confidence,
		Source:     memory.SourceUser,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

func TestFactStore_StoreAndGet(t *testing.T) {
	s := newFactStore(t)

	stored, err := s.Store(userFact("theme", "dark", 0.8))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("stored fact has no id")
	}
	if stored.CreatedAt == "" || stored.UpdatedAt != stored.CreatedAt {
		t.Errorf("timestamps not set on creation: created=%q updated=%q", stored.CreatedAt, stored.UpdatedAt)
	}

	got, found, err := s.Get(stored.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !found {
		t.Fatal("stored fact not found by id")
	}
	var v string
	if err := got.Value.Decode(&v); err != nil || v != "dark" {
		t.Errorf("value roundtrip = %q, %v; want \"dark\"", v, err)
	}
}

func TestFactStore_Validation(t *testing.T) {
	s := newFactStore(t)

	cases := []struct {
		name   string
		mutate func(*memory.Fact)
		field  string
	}{
		{"empty key", func(f *memory.Fact) { f.Key = "" }, "key"},
		{"bad scope", func(f *memory.Fact) { f.Scope = "no spaces allowed" }, "scope"},
		{"bad category", func(f *memory.Fact) { f.Category = "opinion" }, "category"},
		{"bad source", func(f *memory.Fact) { f.Source = "oracle" }, "source"},
		{"empty value", func(f *memory.Fact) { f.Value = memory.Value{} }, "value"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := userFact("k", "v", 0.5)
			tc.mutate(&f)
			_, err := s.Store(f)
			var verr *memory.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Store() error = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("ValidationError.Field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestFactStore_ConfidenceClamped(t *testing.T) {
	s := newFactStore(t)

	high, err := s.Store(userFact("a", "v", 1.7))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if high.Confidence != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", high.Confidence)
	}

	low, err := s.Store(userFact("b", "v", -0.3))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if low.Confidence != 0.0 {
		t.Errorf("confidence = %v, want clamped to 0.0", low.Confidence)
	}
}

func TestFactStore_LowerConfidenceIsNoOp(t *testing.T) {
	s := newFactStore(t)

	first, err := s.Store(userFact("theme", "dark", 0.8))
	if err != nil {
		t.Fatalf("first Store() error: %v", err)
	}

	second, err := s.Store(userFact("theme", "light", 0.6))
	if err != nil {
		t.Fatalf("second Store() error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("id changed on no-op store: %q -> %q", first.ID, second.ID)
	}
	var v string
	if err := second.Value.Decode(&v); err != nil || v != "dark" {
		t.Errorf("returned value = %q, want existing \"dark\"", v)
	}

	// Equal confidence is also a no-op.
	third, err := s.Store(userFact("theme", "light", 0.8))
	if err != nil {
		t.Fatalf("third Store() error: %v", err)
	}
	if err := third.Value.Decode(&v); err != nil || v != "dark" {
		t.Errorf("equal-confidence store replaced value: got %q", v)
	}
}

func TestFactStore_HigherConfidenceReplaces(t *testing.T) {
	s := newFactStore(t)

	first, err := s.Store(userFact("theme", "dark", 0.6))
	if err != nil {
		t.Fatalf("first Store() error: %v", err)
	}

	replacement := userFact("theme", "light", 0.9)
	replacement.Category = memory.CategoryDecision
	replacement.Source = memory.SourceAgent
	second, err := s.Store(replacement)
	if err != nil {
		t.Fatalf("second Store() error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replacement changed id: %q -> %q", first.ID, second.ID)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Errorf("replacement changed created_at: %q -> %q", first.CreatedAt, second.CreatedAt)
	}
	if second.Category != memory.CategoryDecision || second.Source != memory.SourceAgent {
		t.Errorf("replacement did not carry category/source: %+v", second)
	}

	// Still exactly one row for the (scope, key) pair.
	facts, err := s.Query(memory.FactFilter{Scope: memory.ScopeUser, Key: "theme"})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("rows for (user, theme) = %d, want 1", len(facts))
	}
}

// ─── Update / Delete ─────────────────────────────────────────────────────────

func TestFactStore_UpdateUnknownID(t *testing.T) {
	s := newFactStore(t)

	f := userFact("k", "v", 0.5)
	f.ID = "no-such-id"
	_, err := s.Update(f)
	var nfe *memory.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("Update() error = %v, want NotFoundError", err)
	}
}

func TestFactStore_UpdateUnconditional(t *testing.T) {
	s := newFactStore(t)

	stored, err := s.Store(userFact("theme", "dark", 0.9))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	// Update may lower confidence; it is unconditional by id.
	stored.Value = memory.StringValue("light")
	stored.Confidence = 0.2
	updated, err := s.Update(stored)
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if updated.Confidence != 0.2 {
		t.Errorf("confidence = %v, want 0.2", updated.Confidence)
	}
	var v string
	if err := updated.Value.Decode(&v); err != nil || v != "light" {
		t.Errorf("value = %q, want \"light\"", v)
	}
}

func TestFactStore_Delete(t *testing.T) {
	s := newFactStore(t)

	stored, err := s.Store(userFact("theme", "dark", 0.8))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}

	removed, err := s.Delete(stored.ID)
	if err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if !removed {
		t.Error("Delete() = false for existing fact")
	}

	if _, found, _ := s.Get(stored.ID); found {
		t.Error("fact still present after delete")
	}

	removed, err = s.Delete(stored.ID)
	if err != nil {
		t.Fatalf("second Delete() error: %v", err)
	}
	if removed {
		t.Error("Delete() = true for missing fact")
	}
}

// ─── Query ───────────────────────────────────────────────────────────────────

func TestFactStore_QueryFilters(t *testing.T) {
	s := newFactStore(t)

	seed := []memory.Fact{
		{Scope: memory.ScopeUser, Category: memory.CategoryPreference, Key: "theme", Value: memory.StringValue("dark"), Confidence: 0.9, Source: memory.SourceUser},
		{Scope: memory.ScopeUser, Category: memory.CategoryDecision, Key: "editor", Value: memory.StringValue("vim"), Confidence: 0.5, Source: memory.SourceAgent},
		{Scope: memory.ScopeProject, Category: memory.CategoryConstraint, Key: "max-deps", Value: memory.StringValue("ten"), Confidence: 0.7, Source: memory.SourceTool},
	}
	for _, f := range seed {
		if _, err := s.Store(f); err != nil {
			t.Fatalf("seed Store() error: %v", err)
		}
	}

	byScope, err := s.Query(memory.FactFilter{Scope: memory.ScopeUser})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(byScope) != 2 {
		t.Errorf("scope=user matches = %d, want 2", len(byScope))
	}
	// Ordered by confidence DESC.
	if len(byScope) == 2 && byScope[0].Confidence < byScope[1].Confidence {
		t.Error("results not ordered by confidence DESC")
	}

	byConf, err := s.Query(memory.FactFilter{MinConfidence: 0.6})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(byConf) != 2 {
		t.Errorf("minConfidence=0.6 matches = %d, want 2", len(byConf))
	}

	bySource, err := s.Query(memory.FactFilter{Source: memory.SourceTool})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(bySource) != 1 || bySource[0].Key != "max-deps" {
		t.Errorf("source=tool = %+v, want the max-deps fact", bySource)
	}

	byPattern, err := s.Query(memory.FactFilter{KeyPattern: "the%"})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(byPattern) != 1 || byPattern[0].Key != "theme" {
		t.Errorf("key pattern the%% = %+v, want the theme fact", byPattern)
	}

	conj, err := s.Query(memory.FactFilter{Scope: memory.ScopeUser, Category: memory.CategoryDecision, MinConfidence: 0.9})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(conj) != 0 {
		t.Errorf("conjunction of predicates matched %d, want 0", len(conj))
	}
}

// ─── Audit log ───────────────────────────────────────────────────────────────

func TestFactStore_AuditTrail(t *testing.T) {
	s := newFactStore(t)

	stored, err := s.Store(userFact("theme", "dark", 0.6))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if _, err := s.Store(userFact("theme", "light", 0.9)); err != nil {
		t.Fatalf("replacement Store() error: %v", err)
	}
	if _, err := s.Delete(stored.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	records, err := s.AuditLog(stored.ID, 0)
	if err != nil {
		t.Fatalf("AuditLog() error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("audit records = %d, want 3 (insert, update, delete)", len(records))
	}

	// Most recent first.
	ops := []string{records[0].Operation, records[1].Operation, records[2].Operation}
	want := []string{"delete", "update", "insert"}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("audit operations = %v, want %v", ops, want)
		}
	}

	if records[2].OldValue != nil {
		t.Error("insert record has an old value")
	}
	if records[1].OldValue == nil || records[1].NewValue == nil {
		t.Error("update record missing old/new value")
	}
	if records[0].NewValue != nil {
		t.Error("delete record has a new value")
	}
}

func TestFactStore_NoOpStoreLeavesNoAudit(t *testing.T) {
	s := newFactStore(t)

	stored, err := s.Store(userFact("theme", "dark", 0.8))
	if err != nil {
		t.Fatalf("Store() error: %v", err)
	}
	if _, err := s.Store(userFact("theme", "light", 0.5)); err != nil {
		t.Fatalf("no-op Store() error: %v", err)
	}

	records, err := s.AuditLog(stored.ID, 0)
	if err != nil {
		t.Fatalf("AuditLog() error: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("audit records after no-op = %d, want 1", len(records))
	}
}

// ─── Stats ───────────────────────────────────────────────────────────────────

func TestFactStore_Stats(t *testing.T) {
	s := newFactStore(t)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalFacts != 0 || stats.AvgConfidence != 0 {
		t.Errorf("empty store stats = %+v", stats)
	}

	if _, err := s.Store(userFact("a", "v", 0.4)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Store(userFact("b", "v", 0.8)); err != nil {
		t.Fatal(err)
	}

	stats, err = s.Stats()
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.TotalFacts != 2 {
		t.Errorf("TotalFacts = %d, want 2", stats.TotalFacts)
	}
	if stats.ByScope[memory.ScopeUser] != 2 {
		t.Errorf("ByScope[user] = %d, want 2", stats.ByScope[memory.ScopeUser])
	}
	if stats.ByCategory[memory.CategoryPreference] != 2 {
		t.Errorf("ByCategory[preference] = %d, want 2", stats.ByCategory[memory.CategoryPreference])
	}
	if stats.AvgConfidence < 0.59 || stats.AvgConfidence > 0.61 {
		t.Errorf("AvgConfidence = %v, want ~0.6", stats.AvgConfidence)
	}
}
