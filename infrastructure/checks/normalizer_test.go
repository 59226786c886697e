package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "strips AI prefix boilerplate",
			response: "As an AI language model, I cannot be certain which date you mean.",
			want:     "I cannot be certain which date you mean.",
		},
		{
			name:     "strips self-reference boilerplate",
			response: "I'm just an AI, but the premise seems off.",
			want:     "but the premise seems off.",
		},
		{
			name:     "collapses excess newlines",
			response: "First point.\n\n\n\nSecond point.",
			want:     "First point.\n\nSecond point.",
		},
		{
			name:     "collapses excess spaces",
			response: "The    answer     depends.",
			want:     "The answer depends.",
		},
		{
			name:     "trims surrounding whitespace",
			response: "  \n The deadline is unclear. \n ",
			want:     "The deadline is unclear.",
		},
		{
			name:     "substantive content untouched",
			response: "Which deadline do you mean, the internal one or the client's?",
			want:     "Which deadline do you mean, the internal one or the client's?",
		},
		{
			name:     "empty input stays empty",
			response: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeResponse(tt.response)
			assert.Equal(t, tt.want, got)

			// Normalization is idempotent.
			assert.Equal(t, got, NormalizeResponse(got))
		})
	}
}
