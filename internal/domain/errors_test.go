package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoringFailedError(t *testing.T) {
	cause := errors.New("no JSON object in judge response")
	err := &ScoringFailedError{ItemID: "A-001", Attempts: 3, Err: cause}

	assert.Contains(t, err.Error(), "A-001")
	assert.Contains(t, err.Error(), "3")
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("scoring item: %w", err)
	var sfe *ScoringFailedError
	require.ErrorAs(t, wrapped, &sfe)
	assert.Equal(t, "A-001", sfe.ItemID)
}
