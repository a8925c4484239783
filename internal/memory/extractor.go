package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CompletionFunc is the narrow LLM interface the extractor consumes.
// Model selection, retries and transport all belong to the caller.
type CompletionFunc func(ctx context.Context, prompt string) (string, error)

// Extractor asks an external model to distill a lesson out of a
// situation/action/outcome triple, then runs the result through the
// validator gate. It never persists anything itself.
type Extractor struct {
	complete  CompletionFunc
	validator *Validator
}

// NewExtractor creates an extractor over a completion function and the
// validator that gates its output.
func NewExtractor(complete CompletionFunc, validator *Validator) *Extractor {
	return &Extractor{complete: complete, validator: validator}
}

const extractPromptTemplate = `You observed an AI agent work through a task.

Situation: %s
Action taken: %s
Outcome: %s

Distill ONE generalizable lesson — an abstract strategy that would transfer
to similar future situations, not a restatement of what happened and not a
fact about this particular project. Reply with only a JSON object:

{"lesson": "<one sentence, under %d characters>", "confidence": <0.0-1.0>}`

// extractReply is the shape the model is asked to produce.
type extractReply struct {
	Lesson     string  `json:"lesson"`
	Confidence float64 `json:"confidence"`
}

// Extract produces a validated episode, or nil when no lesson qualifies.
// A malformed model reply counts as "no lesson qualifies"; only transport
// failures from the completion function are returned as errors.
func (e *Extractor) Extract(ctx context.Context, situation, action, outcome string) (*Episode, error) {
	prompt := fmt.Sprintf(extractPromptTemplate, situation, action, outcome, e.validator.Rules().MaxLessonLen)

	reply, err := e.complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("memory: lesson extraction: %w", err)
	}

	var parsed extractReply
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &parsed); err != nil {
		return nil, nil
	}

	ep, err := e.validator.Validate(Candidate{
		Situation:  situation,
		Action:     action,
		Outcome:    outcome,
		Lesson:     parsed.Lesson,
		Confidence: parsed.Confidence,
	})
	if err != nil {
		// The model produced an unusable lesson; the caller sent nothing
		// malformed. No episode qualifies.
		var verr *ValidationError
		if errors.As(err, &verr) {
			return nil, nil
		}
		return nil, err
	}
	return ep, nil
}

// stripCodeFence unwraps a ```json ... ``` fenced reply, a habit many
// models keep even when told to answer with bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
