package memory

import (
	"fmt"
	"sort"
	"strings"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// RankedEpisode pairs an episode with its relevance to a task.
type RankedEpisode struct {
	Episode
	Relevance float64 `json:"relevance"`
}

// readerCandidateCap bounds how many episodes one relevance pass scans.
const readerCandidateCap = 200

// advisoryDisclaimer labels reader output as non-binding.
const advisoryDisclaimer = "These are heuristics learned from earlier sessions. " +
	"They are suggestions, not ground truth — verify before relying on them."

// stopWords are function words dropped during keyword extraction.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "that": true, "this": true,
	"with": true, "from": true, "into": true, "then": true, "than": true,
	"when": true, "what": true, "which": true, "while": true, "where": true,
	"have": true, "has": true, "had": true, "was": true, "were": true,
	"been": true, "being": true, "will": true, "would": true, "could": true,
	"should": true, "about": true, "after": true, "before": true, "over": true,
	"under": true, "some": true, "such": true, "very": true, "just": true,
	"also": true, "only": true, "your": true, "their": true, "there": true,
	"here": true, "does": true, "doing": true, "done": true, "each": true,
	"they": true, "them": true, "these": true, "those": true, "more": true,
	"most": true, "other": true,
}

// ─── Reader ──────────────────────────────────────────────────────────────────

// Reader is the read-only, advisory view over the episodic tier. It
// never mutates the store and never consults the symbolic tier.
type Reader struct {
	episodes *EpisodeStore
}

// NewReader creates a reader over an episode store.
func NewReader(episodes *EpisodeStore) *Reader {
	return &Reader{episodes: episodes}
}

// GetRelevantEpisodes ranks stored lessons against a task description.
// With no usable keywords in the task, it falls back to the most
// confident, most recent episodes above the floor. Otherwise it keeps
// episodes whose lesson or situation mention any task keyword, ranked by
// confidence DESC then Jaccard relevance DESC.
func (r *Reader) GetRelevantEpisodes(taskDescription string, minConfidence float64, limit int) ([]RankedEpisode, error) {
	if limit <= 0 {
		limit = 5
	}

	keywords := extractKeywords(taskDescription)
	if len(keywords) == 0 {
		episodes, err := r.episodes.Query(EpisodeFilter{MinConfidence: minConfidence, Limit: limit})
		if err != nil {
			return nil, err
		}
		ranked := make([]RankedEpisode, len(episodes))
		for i, e := range episodes {
			ranked[i] = RankedEpisode{Episode: e}
		}
		return ranked, nil
	}

	candidates, err := r.episodes.Query(EpisodeFilter{MinConfidence: minConfidence, Limit: readerCandidateCap})
	if err != nil {
		return nil, err
	}

	var ranked []RankedEpisode
	for _, e := range candidates {
		haystack := strings.ToLower(e.Lesson + " " + e.Situation)
		matched := false
		for kw := range keywords {
			if strings.Contains(haystack, kw) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		ranked = append(ranked, RankedEpisode{
			Episode:   e,
			Relevance: jaccard(keywords, extractKeywords(e.Lesson)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		if ranked[i].Relevance != ranked[j].Relevance {
			return ranked[i].Relevance > ranked[j].Relevance
		}
		return ranked[i].CreatedAt > ranked[j].CreatedAt
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// GetAdvisoryContext formats the top relevant lessons as a clearly
// labelled, non-authoritative block for prompt assembly. An empty string
// means nothing qualified.
func (r *Reader) GetAdvisoryContext(taskDescription string, minConfidence float64, limit int) (string, error) {
	ranked, err := r.GetRelevantEpisodes(taskDescription, minConfidence, limit)
	if err != nil {
		return "", err
	}
	if len(ranked) == 0 {
		return "", nil
	}

	var b strings.Builder
	b.WriteString("## Lessons from past episodes (advisory)\n\n")
	b.WriteString(advisoryDisclaimer)
	b.WriteString("\n\n")
	for i, e := range ranked {
		fmt.Fprintf(&b, "%d. %s (confidence %.2f)\n", i+1, e.Lesson, e.Confidence)
		fmt.Fprintf(&b, "   Situation: %s\n", e.Situation)
	}
	return b.String(), nil
}

// ─── Keywords ────────────────────────────────────────────────────────────────

// extractKeywords lower-cases, strips punctuation and drops stop words
// and words of three characters or fewer.
func extractKeywords(text string) map[string]bool {
	keywords := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
		})
		if len(w) <= 3 || stopWords[w] {
			continue
		}
		keywords[w] = true
	}
	return keywords
}

// jaccard is |a ∩ b| / |a ∪ b| over keyword sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if b[w] {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
