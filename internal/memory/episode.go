package memory

import (
	"math"
	"strings"
)

// Episode is one advisory lesson learned from experience: what happened,
// what was done, how it went, and the generalizable strategy drawn from it.
type Episode struct {
	ID         string  `json:"id"`
	Situation  string  `json:"situation"`
	Action     string  `json:"action"`
	Outcome    string  `json:"outcome"`
	Lesson     string  `json:"lesson"`
	Confidence float64 `json:"confidence"`
	CreatedAt  string  `json:"created_at"`
}

// storeMaxLessonLen is the store-level lesson ceiling. The extractor
// applies its own stricter limit; both gates are enforced independently.
const storeMaxLessonLen = 1000

// maxLessonOverlap is the highest tolerated word-overlap ratio between
// lesson and situation. Above it, the lesson is just the situation
// restated, not a strategy.
const maxLessonOverlap = 0.7

// validateEpisode applies the store-level episode rules. Confidence is
// clamped like fact confidence; everything else is a hard reject.
func validateEpisode(e *Episode) error {
	for field, text := range map[string]string{
		"situation": e.Situation,
		"action":    e.Action,
		"outcome":   e.Outcome,
		"lesson":    e.Lesson,
	} {
		if strings.TrimSpace(text) == "" {
			return &ValidationError{Field: field, Reason: "must not be empty"}
		}
	}
	if math.IsNaN(e.Confidence) || math.IsInf(e.Confidence, 0) {
		return &ValidationError{Field: "confidence", Reason: "must be a finite number"}
	}
	if len(e.Lesson) > storeMaxLessonLen {
		return &ValidationError{Field: "lesson", Reason: "exceeds 1000 characters"}
	}
	if wordOverlap(e.Lesson, e.Situation) > maxLessonOverlap {
		return &ValidationError{Field: "lesson", Reason: "restates the situation instead of abstracting from it"}
	}
	e.Confidence = clampConfidence(e.Confidence)
	return nil
}

// wordOverlap returns the fraction of distinct lesson words that also
// appear in the situation. Case-insensitive.
func wordOverlap(lesson, situation string) float64 {
	lessonWords := wordSet(lesson)
	if len(lessonWords) == 0 {
		return 0
	}
	situationWords := wordSet(situation)
	shared := 0
	for w := range lessonWords {
		if situationWords[w] {
			shared++
		}
	}
	return float64(shared) / float64(len(lessonWords))
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,;:!?\"'()[]")
		if w != "" {
			set[w] = true
		}
	}
	return set
}
