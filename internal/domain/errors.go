package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned by the scoring pipeline's pure functions.
var (
	// ErrInvalidAxisScore indicates an axis score outside [0, 2] or a
	// judgment with a missing justification.
	ErrInvalidAxisScore = errors.New("invalid axis score")

	// ErrEmptyModelID indicates a leaderboard entry without a model id.
	ErrEmptyModelID = errors.New("model id cannot be empty")
)

// ScoringFailedError reports that judging an item failed permanently after
// exhausting all retries. It is deliberately distinct from transport errors:
// a failed judgment must surface as a failure, never as a substituted score.
type ScoringFailedError struct {
	// ItemID identifies the benchmark item whose judging failed.
	ItemID string
	// Attempts is the number of judge calls made before giving up.
	Attempts int
	// Err is the last error encountered.
	Err error
}

// Error implements the error interface.
func (e *ScoringFailedError) Error() string {
	return fmt.Sprintf("scoring failed for item %s after %d attempts: %v", e.ItemID, e.Attempts, e.Err)
}

// Unwrap returns the last underlying error.
func (e *ScoringFailedError) Unwrap() error { return e.Err }
