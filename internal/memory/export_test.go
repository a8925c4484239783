package memory

import "time"

// SetTimeNow overrides the package clock for retention tests and returns
// a restore func.
func SetTimeNow(f func() time.Time) func() {
	old := timeNow
	timeNow = f
	return func() { timeNow = old }
}

// FormatTime renders a time in the store's timestamp layout so tests can
// back-date rows.
func FormatTime(t time.Time) string { return t.Format(timeLayout) }

// WordOverlap exposes the lesson/situation overlap ratio to tests.
var WordOverlap = wordOverlap

// ExtractKeywords exposes keyword extraction to tests.
var ExtractKeywords = extractKeywords

// Jaccard exposes the set similarity to tests.
var Jaccard = jaccard
