// Package ports defines the interfaces the scoring pipeline depends on.
// Infrastructure packages provide the implementations; application code
// accepts these interfaces so every stage can be exercised with fakes.
package ports

import (
	"context"

	"github.com/gustycube/erreval/internal/domain"
)

// Message is a single chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one chat-completion call. ResponseFormat, when
// non-nil, asks the endpoint for schema-constrained output.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	// ResponseFormat is the raw response_format payload (e.g. a json_schema
	// declaration) forwarded to the endpoint. Nil means unconstrained text.
	ResponseFormat *ResponseFormat
}

// ResponseFormat declares a structured-output constraint for a completion.
type ResponseFormat struct {
	// Name labels the schema for the endpoint.
	Name string
	// Schema is the JSON Schema document, already marshaled.
	Schema []byte
	// Strict asks the endpoint to reject any deviation from the schema.
	Strict bool
}

// GenerationStats carries the cost and latency metadata of one generation.
// All fields are best-effort; a zero value is a valid "unknown" result.
type GenerationStats struct {
	TotalCost  float64 `json:"total_cost"`
	LatencyMs  float64 `json:"latency"`
	TokensIn   int     `json:"tokens_prompt"`
	TokensOut  int     `json:"tokens_completion"`
	Generation string  `json:"id"`
}

// ChatClient issues chat-completion requests to a model endpoint.
// Implementations handle authentication, timeouts, and retry of transient
// failures; they must be safe for concurrent use.
type ChatClient interface {
	// Complete sends a completion request and returns the generated content
	// together with the endpoint's generation id. Rate limiting (HTTP 429)
	// and timeouts are retried with exponential backoff up to a configured
	// bound; any other endpoint error propagates immediately. Exhausting
	// retries returns the last error encountered.
	Complete(ctx context.Context, req CompletionRequest) (content, generationID string, err error)

	// GenerationStats looks up cost/latency metadata for a generation.
	// It returns zero stats, never an error, when the id is empty or the
	// lookup fails: stats are reporting enrichments, not correctness.
	GenerationStats(ctx context.Context, generationID string) GenerationStats
}

// DatasetLoader supplies the canonical benchmark items for a run.
type DatasetLoader interface {
	// Load returns the items for the requested tracks, at most limit per
	// track. A nil tracks slice selects every track; limit <= 0 means no
	// per-track bound.
	Load(ctx context.Context, tracks []string, limit int) ([]domain.CanonicalItem, error)
}

// LeaderboardStore persists the cross-run leaderboard. Merging must be a
// full read-modify-sort-write cycle; the store assumes at most one
// concurrent writer, enforced by the orchestrator.
type LeaderboardStore interface {
	// Load reads the persisted leaderboard, reinitializing an empty one when
	// the file is absent or structurally invalid.
	Load() (*domain.Leaderboard, error)

	// Merge folds the entry into the persisted leaderboard and writes the
	// re-ranked result back durably.
	Merge(entry domain.LeaderboardEntry) (*domain.Leaderboard, error)
}
