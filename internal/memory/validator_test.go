package memory_test

import (
	"strings"
	"testing"

	"github.com/HendryAvila/mnemo/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCandidate() memory.Candidate {
	return memory.Candidate{
		Situation:  "tests failed intermittently on the shared CI runner",
		Action:     "pinned the test database to a per-run container",
		Outcome:    "flakes disappeared",
		Lesson:     "isolate shared state per run instead of reusing global services",
		Confidence: 0.8,
	}
}

func TestValidator_AcceptsAbstractLesson(t *testing.T) {
	v := memory.NewValidator(memory.DefaultLessonRules())

	ep, err := v.Validate(validCandidate())
	require.NoError(t, err)
	require.NotNil(t, ep)
	assert.NotEmpty(t, ep.ID)
	assert.NotEmpty(t, ep.CreatedAt)
	assert.Equal(t, 0.8, ep.Confidence)
}

func TestValidator_Rejections(t *testing.T) {
	v := memory.NewValidator(memory.DefaultLessonRules())

	cases := []struct {
		name   string
		mutate func(*memory.Candidate)
		field  string
	}{
		{
			"empty situation",
			func(c *memory.Candidate) { c.Situation = "" },
			"situation",
		},
		{
			"empty action",
			func(c *memory.Candidate) { c.Action = "   " },
			"action",
		},
		{
			"confidence above one",
			func(c *memory.Candidate) { c.Confidence = 1.3 },
			"confidence",
		},
		{
			"lesson over extractor ceiling",
			func(c *memory.Candidate) { c.Lesson = strings.Repeat("should verify assumptions ", 25) },
			"lesson",
		},
		{
			"lesson is the situation verbatim",
			func(c *memory.Candidate) { c.Lesson = c.Situation },
			"lesson",
		},
		{
			"fact-shaped lesson",
			func(c *memory.Candidate) { c.Lesson = "project uses postgres 15 for persistence" },
			"lesson",
		},
		{
			"no abstraction marker",
			func(c *memory.Candidate) { c.Lesson = "pinned a container and flakes disappeared" },
			"lesson",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCandidate()
			tc.mutate(&c)
			ep, err := v.Validate(c)
			assert.Nil(t, ep)
			var verr *memory.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestValidator_LowConfidenceDiscardedSilently(t *testing.T) {
	v := memory.NewValidator(memory.DefaultLessonRules())

	c := validCandidate()
	c.Confidence = 0.5 // below the 0.6 default floor
	ep, err := v.Validate(c)
	assert.Nil(t, ep, "no episode qualifies")
	assert.NoError(t, err, "a discard is not an error")
}

func TestValidator_CustomRuleTable(t *testing.T) {
	rules := memory.DefaultLessonRules()
	rules.MinConfidence = 0.3
	v := memory.NewValidator(rules)

	c := validCandidate()
	c.Confidence = 0.5
	ep, err := v.Validate(c)
	require.NoError(t, err)
	assert.NotNil(t, ep, "lowered floor admits the candidate")
}

// TestValidator_OutputPassesStoreGate checks the two gates compose: a
// validator-approved episode must also satisfy the store's independent,
// stricter-ceiling checks.
func TestValidator_OutputPassesStoreGate(t *testing.T) {
	v := memory.NewValidator(memory.DefaultLessonRules())
	s := newEpisodeStore(t)

	ep, err := v.Validate(validCandidate())
	require.NoError(t, err)
	require.NotNil(t, ep)

	_, err = s.Store(*ep)
	assert.NoError(t, err)
}

func TestDefaultLessonRules_Versioned(t *testing.T) {
	rules := memory.DefaultLessonRules()
	assert.Equal(t, 1, rules.Version)
	assert.NotEmpty(t, rules.FactPhrasings)
	assert.NotEmpty(t, rules.AbstractionMarkers)
	assert.Equal(t, 500, rules.MaxLessonLen)
	assert.Equal(t, 0.6, rules.MinConfidence)
}
