// Package memory implements the tiered memory substrate for AI agents.
//
// It keeps two tiers in one SQLite database: durable symbolic facts
// (FactStore, with an append-only audit trail) and advisory episodic
// lessons (EpisodeStore, guarded by Validator). On the read side,
// Selector turns the raw fact corpus into a bounded, deterministic,
// conflict-free set for prompt injection, and Reader ranks lessons by
// keyword relevance. Facts are authoritative; lessons are advisory —
// the two outputs are never merged inside this package.
//
// Adapted from Engram's store lineage (github.com/Gentleman-Programming/engram)
// via the Hoofy memory engine.
package memory
