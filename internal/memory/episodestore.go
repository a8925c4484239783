package memory

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// EpisodeFilter is a conjunction of optional predicates for Query.
type EpisodeFilter struct {
	Lesson            string  `json:"lesson,omitempty"`
	LessonPattern     string  `json:"lesson_pattern,omitempty"` // SQL LIKE pattern
	MinConfidence     float64 `json:"min_confidence,omitempty"`
	SituationContains string  `json:"situation_contains,omitempty"`
	Limit             int     `json:"limit,omitempty"`
}

// EpisodeStats holds aggregate episode statistics.
type EpisodeStats struct {
	TotalEpisodes int     `json:"total_episodes"`
	AvgConfidence float64 `json:"avg_confidence"`
	OldestCreated string  `json:"oldest_created,omitempty"`
	NewestCreated string  `json:"newest_created,omitempty"`
}

// ─── EpisodeStore ────────────────────────────────────────────────────────────

// EpisodeStore owns the episode_memory table. Writes pass the full
// store-level validation first; an invalid lesson is rejected outright,
// never softened into a degraded valid one.
type EpisodeStore struct {
	db *sql.DB
}

// NewEpisodeStore creates the store over an open database handle and
// runs its migrations.
func NewEpisodeStore(db *sql.DB) (*EpisodeStore, error) {
	s := &EpisodeStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, storageErr("episode migration", err)
	}
	return s, nil
}

func (s *EpisodeStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS episode_memory (
			id         TEXT PRIMARY KEY,
			situation  TEXT NOT NULL,
			action     TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			lesson     TEXT NOT NULL,
			confidence REAL NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_episodes_confidence ON episode_memory(confidence DESC);
		CREATE INDEX IF NOT EXISTS idx_episodes_created    ON episode_memory(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Store validates and inserts an episode.
func (s *EpisodeStore) Store(e Episode) (Episode, error) {
	if err := validateEpisode(&e); err != nil {
		return Episode{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == "" {
		e.CreatedAt = Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO episode_memory (id, situation, action, outcome, lesson, confidence, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Situation, e.Action, e.Outcome, e.Lesson, e.Confidence, e.CreatedAt,
	)
	if err != nil {
		return Episode{}, storageErr("insert episode", err)
	}
	return e, nil
}

// Get retrieves an episode by id.
func (s *EpisodeStore) Get(id string) (Episode, bool, error) {
	var e Episode
	err := s.db.QueryRow(
		`SELECT id, situation, action, outcome, lesson, confidence, created_at
		 FROM episode_memory WHERE id = ?`, id,
	).Scan(&e.ID, &e.Situation, &e.Action, &e.Outcome, &e.Lesson, &e.Confidence, &e.CreatedAt)
	if err == sql.ErrNoRows {
		return Episode{}, false, nil
	}
	if err != nil {
		return Episode{}, false, storageErr("get episode", err)
	}
	return e, true, nil
}

// Query returns episodes matching every set predicate, ordered by
// confidence DESC, created_at DESC.
func (s *EpisodeStore) Query(filter EpisodeFilter) ([]Episode, error) {
	query := `
		SELECT id, situation, action, outcome, lesson, confidence, created_at
		FROM episode_memory
		WHERE 1=1
	`
	args := []any{}

	if filter.Lesson != "" {
		query += " AND lesson = ?"
		args = append(args, filter.Lesson)
	}
	if filter.LessonPattern != "" {
		query += " AND lesson LIKE ?"
		args = append(args, filter.LessonPattern)
	}
	if filter.MinConfidence > 0 {
		query += " AND confidence >= ?"
		args = append(args, filter.MinConfidence)
	}
	if filter.SituationContains != "" {
		query += " AND situation LIKE ?"
		args = append(args, "%"+filter.SituationContains+"%")
	}

	query += " ORDER BY confidence DESC, created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return s.queryEpisodes(query, args...)
}

// ListRecent returns episodes created within the last N days at or above
// the confidence floor, most confident and most recent first.
func (s *EpisodeStore) ListRecent(days int, minConfidence float64, limit int) ([]Episode, error) {
	if days <= 0 {
		days = 30
	}
	query := `
		SELECT id, situation, action, outcome, lesson, confidence, created_at
		FROM episode_memory
		WHERE datetime(created_at) >= datetime(?, ?)
		  AND confidence >= ?
		ORDER BY confidence DESC, created_at DESC
	`
	args := []any{Now(), fmt.Sprintf("-%d days", days), minConfidence}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryEpisodes(query, args...)
}

// Delete removes an episode by id, reporting whether a row existed.
func (s *EpisodeStore) Delete(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM episode_memory WHERE id = ?`, id)
	if err != nil {
		return false, storageErr("delete episode", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete episode", err)
	}
	return n > 0, nil
}

// Cleanup deletes episodes that are BOTH older than the day threshold
// AND below the confidence threshold. The conjunction is the retention
// rule: old-but-trusted lessons survive, as do fresh-but-shaky ones.
func (s *EpisodeStore) Cleanup(days int, minConfidence float64) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM episode_memory
		 WHERE datetime(created_at) < datetime(?, ?)
		   AND confidence < ?`,
		Now(), fmt.Sprintf("-%d days", days), minConfidence,
	)
	if err != nil {
		return 0, storageErr("cleanup episodes", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("cleanup episodes", err)
	}
	return n, nil
}

// Stats returns aggregate episode statistics.
func (s *EpisodeStore) Stats() (*EpisodeStats, error) {
	stats := &EpisodeStats{}
	var oldest, newest sql.NullString
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(confidence), 0), MIN(created_at), MAX(created_at)
		 FROM episode_memory`,
	).Scan(&stats.TotalEpisodes, &stats.AvgConfidence, &oldest, &newest)
	if err != nil {
		return nil, storageErr("episode stats", err)
	}
	stats.OldestCreated = oldest.String
	stats.NewestCreated = newest.String
	return stats, nil
}

func (s *EpisodeStore) queryEpisodes(query string, args ...any) ([]Episode, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("query episodes", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.Situation, &e.Action, &e.Outcome, &e.Lesson, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, storageErr("scan episode", err)
		}
		episodes = append(episodes, e)
	}
	return episodes, rows.Err()
}
