package memory_test

import (
	"strings"
	"testing"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEpisodes(t *testing.T) (*memory.EpisodeStore, *memory.Reader) {
	t.Helper()
	s := newEpisodeStore(t)

	episodes := []memory.Episode{
		{
			Situation:  "flaky integration suite on the shared runner",
			Action:     "moved the suite to an isolated container",
			Outcome:    "stable for two weeks",
			Lesson:     "isolate flaky tests instead of sharing global runners",
			Confidence: 0.9,
		},
		{
			Situation:  "slow code review cycles blocked the release",
			Action:     "split the change into focused commits",
			Outcome:    "reviews landed same day",
			Lesson:     "smaller review units should move faster through approval",
			Confidence: 0.7,
		},
		{
			Situation:  "midnight deploy rollback after a config typo",
			Action:     "added a config linter to the pipeline",
			Outcome:    "typos caught pre-merge",
			Lesson:     "validate configuration before deploys to catch typos early",
			Confidence: 0.8,
		},
	}
	for _, e := range episodes {
		if _, err := s.Store(e); err != nil {
			t.Fatalf("seed episode: %v", err)
		}
	}
	return s, memory.NewReader(s)
}

func TestExtractKeywords(t *testing.T) {
	kw := memory.ExtractKeywords("How should I speed up the flaky integration tests?")

	assert.Contains(t, kw, "flaky")
	assert.Contains(t, kw, "integration")
	assert.Contains(t, kw, "tests")
	assert.Contains(t, kw, "speed")
	// Stop words and short words are dropped.
	assert.NotContains(t, kw, "should")
	assert.NotContains(t, kw, "the")
	assert.NotContains(t, kw, "up")
	assert.NotContains(t, kw, "how")
}

func TestJaccard(t *testing.T) {
	a := map[string]bool{"alpha": true, "beta": true}
	b := map[string]bool{"beta": true, "gamma": true}
	assert.InDelta(t, 1.0/3.0, memory.Jaccard(a, b), 1e-9)
	assert.Equal(t, 0.0, memory.Jaccard(a, map[string]bool{}))
	assert.Equal(t, 0.0, memory.Jaccard(map[string]bool{}, map[string]bool{}))
}

func TestReader_MatchesByKeyword(t *testing.T) {
	_, r := seedEpisodes(t)

	ranked, err := r.GetRelevantEpisodes("our integration tests are flaky again", 0.5, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Contains(t, ranked[0].Lesson, "isolate flaky tests")
	assert.Greater(t, ranked[0].Relevance, 0.0)
}

func TestReader_OrderedByConfidenceThenRelevance(t *testing.T) {
	_, r := seedEpisodes(t)

	// "deploy" hits the config episode (0.8); "runner" the isolation one (0.9).
	ranked, err := r.GetRelevantEpisodes("deploy to the shared runner", 0.5, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.GreaterOrEqual(t, ranked[0].Confidence, ranked[1].Confidence)
}

func TestReader_FallbackWithoutKeywords(t *testing.T) {
	_, r := seedEpisodes(t)

	// Nothing but stop words and short tokens.
	ranked, err := r.GetRelevantEpisodes("so what now?", 0.5, 2)
	require.NoError(t, err)
	require.Len(t, ranked, 2, "fallback returns the most confident recent episodes")
	assert.GreaterOrEqual(t, ranked[0].Confidence, ranked[1].Confidence)
}

func TestReader_ConfidenceFloor(t *testing.T) {
	_, r := seedEpisodes(t)

	ranked, err := r.GetRelevantEpisodes("review units and approvals", 0.8, 5)
	require.NoError(t, err)
	assert.Empty(t, ranked, "the 0.7 review episode sits below the floor")
}

func TestReader_AdvisoryContextFormat(t *testing.T) {
	_, r := seedEpisodes(t)

	ctx, err := r.GetAdvisoryContext("flaky integration tests", 0.5, 3)
	require.NoError(t, err)
	assert.Contains(t, ctx, "advisory")
	assert.Contains(t, ctx, "not ground truth")
	assert.Contains(t, ctx, "isolate flaky tests")
	assert.Contains(t, ctx, "Situation:")
}

func TestReader_AdvisoryContextEmpty(t *testing.T) {
	s := newEpisodeStore(t)
	r := memory.NewReader(s)

	ctx, err := r.GetAdvisoryContext("anything at all", 0.5, 3)
	require.NoError(t, err)
	assert.Equal(t, "", ctx, "nothing qualifying yields an empty string, not an error")
}

func TestReader_NeverMutates(t *testing.T) {
	s, r := seedEpisodes(t)

	before, err := s.Stats()
	require.NoError(t, err)

	_, err = r.GetRelevantEpisodes("integration tests", 0.5, 5)
	require.NoError(t, err)
	_, err = r.GetAdvisoryContext("integration tests", 0.5, 5)
	require.NoError(t, err)

	after, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReader_LimitRespected(t *testing.T) {
	_, r := seedEpisodes(t)

	ranked, err := r.GetRelevantEpisodes("deploys reviews runners tests configuration", 0.5, 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(ranked), 1)
}

func TestAdvisoryDisclaimer_AlwaysPresent(t *testing.T) {
	_, r := seedEpisodes(t)

	ctx, err := r.GetAdvisoryContext("validate configuration typos", 0.5, 3)
	require.NoError(t, err)
	require.NotEmpty(t, ctx)
	assert.True(t, strings.HasPrefix(ctx, "## Lessons from past episodes (advisory)"))
}
