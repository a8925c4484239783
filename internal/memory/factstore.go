package memory

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// FactFilter is a conjunction of optional predicates for Query.
type FactFilter struct {
	Scope         string   `json:"scope,omitempty"`
	Scopes        []string `json:"scopes,omitempty"`
	Category      string   `json:"category,omitempty"`
	Key           string   `json:"key,omitempty"`
	KeyPattern    string   `json:"key_pattern,omitempty"` // SQL LIKE pattern
	MinConfidence float64  `json:"min_confidence,omitempty"`
	Source        string   `json:"source,omitempty"`
}

// AuditRecord is one row of the append-only fact audit log.
type AuditRecord struct {
	ID        int64   `json:"id"`
	FactID    string  `json:"fact_id"`
	Operation string  `json:"operation"` // "insert", "update" or "delete"
	OldValue  *string `json:"old_value,omitempty"`
	NewValue  *string `json:"new_value,omitempty"`
	ChangedBy string  `json:"changed_by"`
	ChangedAt string  `json:"changed_at"`
}

// FactStats holds aggregate fact statistics.
type FactStats struct {
	TotalFacts    int            `json:"total_facts"`
	ByScope       map[string]int `json:"by_scope"`
	ByCategory    map[string]int `json:"by_category"`
	AvgConfidence float64        `json:"avg_confidence"`
}

// auditLogCap bounds an unfiltered audit log listing.
const auditLogCap = 100

// ─── FactStore ───────────────────────────────────────────────────────────────

// FactStore owns the facts and fact_audit_log tables. Every mutation
// appends exactly one audit record inside the same transaction as the
// mutation itself — a failed audit write fails the whole operation.
type FactStore struct {
	db *sql.DB
}

// NewFactStore creates the store over an open database handle (see
// OpenDB) and runs its migrations.
func NewFactStore(db *sql.DB) (*FactStore, error) {
	s := &FactStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, storageErr("fact migration", err)
	}
	return s, nil
}

func (s *FactStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS facts (
			id         TEXT PRIMARY KEY,
			scope      TEXT NOT NULL,
			category   TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      TEXT NOT NULL,
			confidence REAL NOT NULL,
			source     TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			UNIQUE(scope, key)
		);

		CREATE INDEX IF NOT EXISTS idx_facts_scope      ON facts(scope);
		CREATE INDEX IF NOT EXISTS idx_facts_category   ON facts(category);
		CREATE INDEX IF NOT EXISTS idx_facts_confidence ON facts(confidence DESC);

		CREATE TABLE IF NOT EXISTS fact_audit_log (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			fact_id    TEXT NOT NULL,
			operation  TEXT NOT NULL,
			old_value  TEXT,
			new_value  TEXT,
			changed_by TEXT NOT NULL,
			changed_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_fact    ON fact_audit_log(fact_id);
		CREATE INDEX IF NOT EXISTS idx_audit_changed ON fact_audit_log(changed_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Store validates and persists a fact. If a fact already exists for the
// same (scope, key), the stored row is replaced only when the incoming
// confidence is strictly greater — preserving the original id and
// created_at — otherwise the existing fact is returned unchanged with no
// error. The existence check and the conditional write share one
// transaction on the single-connection pool, so concurrent writers to
// the same (scope, key) are serialized rather than racing.
func (s *FactStore) Store(f Fact) (Fact, error) {
	if err := validateFact(&f); err != nil {
		return Fact{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Fact{}, storageErr("store fact", err)
	}
	defer tx.Rollback()

	var existing Fact
	err = tx.QueryRow(
		`SELECT id, scope, category, key, value, confidence, source, created_at, updated_at
		 FROM facts WHERE scope = ? AND key = ?`,
		f.Scope, f.Key,
	).Scan(&existing.ID, &existing.Scope, &existing.Category, &existing.Key,
		&existing.Value.raw, &existing.Confidence, &existing.Source,
		&existing.CreatedAt, &existing.UpdatedAt)

	switch {
	case err == sql.ErrNoRows:
		f.ID = uuid.NewString()
		f.CreatedAt = Now()
		f.UpdatedAt = f.CreatedAt
		if _, err := tx.Exec(
			`INSERT INTO facts (id, scope, category, key, value, confidence, source, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.Scope, f.Category, f.Key, f.Value.raw, f.Confidence, f.Source, f.CreatedAt, f.UpdatedAt,
		); err != nil {
			return Fact{}, storageErr("insert fact", err)
		}
		if err := appendAudit(tx, f.ID, "insert", nil, nullableString(f.Value.raw), f.Source); err != nil {
			return Fact{}, err
		}

	case err != nil:
		return Fact{}, storageErr("read fact", err)

	case f.Confidence > existing.Confidence:
		f.ID = existing.ID
		f.CreatedAt = existing.CreatedAt
		f.UpdatedAt = Now()
		if _, err := tx.Exec(
			`UPDATE facts SET category = ?, value = ?, confidence = ?, source = ?, updated_at = ?
			 WHERE id = ?`,
			f.Category, f.Value.raw, f.Confidence, f.Source, f.UpdatedAt, f.ID,
		); err != nil {
			return Fact{}, storageErr("update fact", err)
		}
		if err := appendAudit(tx, f.ID, "update", nullableString(existing.Value.raw), nullableString(f.Value.raw), f.Source); err != nil {
			return Fact{}, err
		}

	default:
		// Lower or equal confidence: keep the stored fact, report success.
		if err := tx.Commit(); err != nil {
			return Fact{}, storageErr("store fact", err)
		}
		return existing, nil
	}

	if err := tx.Commit(); err != nil {
		return Fact{}, storageErr("store fact", err)
	}
	return f, nil
}

// Update rewrites a fact unconditionally by id. The id must exist.
func (s *FactStore) Update(f Fact) (Fact, error) {
	if f.ID == "" {
		return Fact{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if err := validateFact(&f); err != nil {
		return Fact{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Fact{}, storageErr("update fact", err)
	}
	defer tx.Rollback()

	var oldValue, createdAt string
	err = tx.QueryRow(`SELECT value, created_at FROM facts WHERE id = ?`, f.ID).Scan(&oldValue, &createdAt)
	if err == sql.ErrNoRows {
		return Fact{}, &NotFoundError{Kind: "fact", ID: f.ID}
	}
	if err != nil {
		return Fact{}, storageErr("read fact", err)
	}

	f.CreatedAt = createdAt
	f.UpdatedAt = Now()
	if _, err := tx.Exec(
		`UPDATE facts SET scope = ?, category = ?, key = ?, value = ?, confidence = ?, source = ?, updated_at = ?
		 WHERE id = ?`,
		f.Scope, f.Category, f.Key, f.Value.raw, f.Confidence, f.Source, f.UpdatedAt, f.ID,
	); err != nil {
		return Fact{}, storageErr("update fact", err)
	}
	if err := appendAudit(tx, f.ID, "update", nullableString(oldValue), nullableString(f.Value.raw), f.Source); err != nil {
		return Fact{}, err
	}

	if err := tx.Commit(); err != nil {
		return Fact{}, storageErr("update fact", err)
	}
	return f, nil
}

// Get retrieves a fact by id.
func (s *FactStore) Get(id string) (Fact, bool, error) {
	var f Fact
	err := s.db.QueryRow(
		`SELECT id, scope, category, key, value, confidence, source, created_at, updated_at
		 FROM facts WHERE id = ?`, id,
	).Scan(&f.ID, &f.Scope, &f.Category, &f.Key, &f.Value.raw,
		&f.Confidence, &f.Source, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return Fact{}, false, nil
	}
	if err != nil {
		return Fact{}, false, storageErr("get fact", err)
	}
	return f, true, nil
}

// Query returns facts matching every set predicate in the filter,
// ordered by confidence DESC, updated_at DESC.
func (s *FactStore) Query(filter FactFilter) ([]Fact, error) {
	query := `
		SELECT id, scope, category, key, value, confidence, source, created_at, updated_at
		FROM facts
		WHERE 1=1
	`
	args := []any{}

	if filter.Scope != "" {
		query += " AND scope = ?"
		args = append(args, filter.Scope)
	}
	if len(filter.Scopes) > 0 {
		query += " AND scope IN (?" + strings.Repeat(", ?", len(filter.Scopes)-1) + ")"
		for _, sc := range filter.Scopes {
			args = append(args, sc)
		}
	}
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Key != "" {
		query += " AND key = ?"
		args = append(args, filter.Key)
	}
	if filter.KeyPattern != "" {
		query += " AND key LIKE ?"
		args = append(args, filter.KeyPattern)
	}
	if filter.MinConfidence > 0 {
		query += " AND confidence >= ?"
		args = append(args, filter.MinConfidence)
	}
	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}

	query += " ORDER BY confidence DESC, updated_at DESC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query facts", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		var f Fact
		if err := rows.Scan(&f.ID, &f.Scope, &f.Category, &f.Key, &f.Value.raw,
			&f.Confidence, &f.Source, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, storageErr("scan fact", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// Delete removes a fact by id, reporting whether a row existed. The
// audit record carries the deleted row's own source as the actor.
func (s *FactStore) Delete(id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, storageErr("delete fact", err)
	}
	defer tx.Rollback()

	var oldValue, source string
	err = tx.QueryRow(`SELECT value, source FROM facts WHERE id = ?`, id).Scan(&oldValue, &source)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storageErr("read fact", err)
	}

	if _, err := tx.Exec(`DELETE FROM facts WHERE id = ?`, id); err != nil {
		return false, storageErr("delete fact", err)
	}
	if err := appendAudit(tx, id, "delete", nullableString(oldValue), nil, source); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("delete fact", err)
	}
	return true, nil
}

// AuditLog returns the audit trail for one fact (factID set) or globally
// (factID empty, capped at the most recent 100 records). Most recent first.
func (s *FactStore) AuditLog(factID string, limit int) ([]AuditRecord, error) {
	query := `
		SELECT id, fact_id, operation, old_value, new_value, changed_by, changed_at
		FROM fact_audit_log
	`
	args := []any{}

	if factID != "" {
		query += " WHERE fact_id = ?"
		args = append(args, factID)
	}
	query += " ORDER BY id DESC"

	if factID == "" && (limit <= 0 || limit > auditLogCap) {
		limit = auditLogCap
	}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query audit log", err)
	}
	defer rows.Close()

	var records []AuditRecord
	for rows.Next() {
		var r AuditRecord
		if err := rows.Scan(&r.ID, &r.FactID, &r.Operation, &r.OldValue, &r.NewValue, &r.ChangedBy, &r.ChangedAt); err != nil {
			return nil, storageErr("scan audit record", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats returns aggregate counts and the mean confidence.
func (s *FactStore) Stats() (*FactStats, error) {
	stats := &FactStats{
		ByScope:    map[string]int{},
		ByCategory: map[string]int{},
	}

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0) FROM facts`,
	).Scan(&stats.TotalFacts, &stats.AvgConfidence)
	if err != nil {
		return nil, storageErr("fact stats", err)
	}

	rows, err := s.db.Query(`SELECT scope, COUNT(*) FROM facts GROUP BY scope`)
	if err != nil {
		return nil, storageErr("fact stats", err)
	}
	defer rows.Close()
	for rows.Next() {
		var scope string
		var n int
		if err := rows.Scan(&scope, &n); err != nil {
			return nil, storageErr("fact stats", err)
		}
		stats.ByScope[scope] = n
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("fact stats", err)
	}

	catRows, err := s.db.Query(`SELECT category, COUNT(*) FROM facts GROUP BY category`)
	if err != nil {
		return nil, storageErr("fact stats", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var cat string
		var n int
		if err := catRows.Scan(&cat, &n); err != nil {
			return nil, storageErr("fact stats", err)
		}
		stats.ByCategory[cat] = n
	}
	return stats, catRows.Err()
}

// appendAudit writes one audit row inside the caller's transaction.
func appendAudit(tx *sql.Tx, factID, operation string, oldValue, newValue *string, changedBy string) error {
	_, err := tx.Exec(
		`INSERT INTO fact_audit_log (fact_id, operation, old_value, new_value, changed_by, changed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		factID, operation, oldValue, newValue, changedBy, Now(),
	)
	return storageErr("append audit record", err)
}
