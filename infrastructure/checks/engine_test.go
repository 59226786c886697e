package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gustycube/erreval/internal/domain"
)

func underspecifiedItem(prompt string) domain.CanonicalItem {
	return domain.CanonicalItem{
		ID:     "A-001",
		Track:  "A",
		Prompt: prompt,
		AmbiguityProfile: domain.AmbiguityProfile{
			Type: []string{"underspecified"},
		},
	}
}

func TestRunChecks_UnderspecifiedConcreteAnswer(t *testing.T) {
	item := underspecifiedItem("Schedule the meeting for next week.")

	caps := RunChecks(item, "The answer is 42.")

	require.NotNil(t, caps.AmbiguityDetection)
	assert.Equal(t, 1, *caps.AmbiguityDetection)
	require.NotNil(t, caps.ResponseStrategy)
	assert.Equal(t, 1, *caps.ResponseStrategy)
	assert.Contains(t, caps.Reasons,
		"Underspecified prompt but response gives concrete answer without noting missing info")
}

func TestRunChecks_UnderspecifiedWithHedging(t *testing.T) {
	item := underspecifiedItem("Schedule the meeting for next week.")

	tests := []struct {
		name     string
		response string
	}{
		{"uncertainty language", "It depends on which week you mean, so I can't pin a day yet."},
		{"clarifying question", "Which day next week works best for you?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := RunChecks(item, tt.response)
			assert.Nil(t, caps.AmbiguityDetection)
			assert.Nil(t, caps.ResponseStrategy)
		})
	}
}

func TestRunChecks_ContradictionUnacknowledged(t *testing.T) {
	item := domain.CanonicalItem{
		ID:     "B-001",
		Track:  "B",
		Prompt: "Finish the report by Friday, and make sure it's done no later than Wednesday.",
		AmbiguityProfile: domain.AmbiguityProfile{
			Type: []string{"conflicting_constraints"},
		},
	}

	caps := RunChecks(item, "I will have the report ready on time.")

	require.NotNil(t, caps.AmbiguityDetection)
	assert.Equal(t, 1, *caps.AmbiguityDetection)
	require.NotNil(t, caps.LocalizationOfUncertainty)
	assert.Equal(t, 1, *caps.LocalizationOfUncertainty)
	assert.Contains(t, caps.Reasons,
		"Prompt contains contradiction but response doesn't acknowledge it")

	// Naming the conflict lifts the cap.
	caps = RunChecks(item, "These two deadlines conflict, so one of them has to move.")
	assert.Nil(t, caps.AmbiguityDetection)
	assert.Nil(t, caps.LocalizationOfUncertainty)
}

func TestRunChecks_HallucinatedDate(t *testing.T) {
	item := domain.CanonicalItem{
		ID:     "C-001",
		Track:  "C",
		Prompt: "When was the meeting?",
	}

	caps := RunChecks(item, "The meeting was on 3/14/2024.")

	require.NotNil(t, caps.HallucinationAvoidance)
	assert.Equal(t, 1, *caps.HallucinationAvoidance)
	// The year inside the slash date is not reported as a second token.
	assert.Contains(t, caps.Reasons,
		"Response introduces unsupported details: date: 3/14/2024")
}

func TestRunChecks_TokensFromPromptAreNotHallucinations(t *testing.T) {
	item := domain.CanonicalItem{
		ID:     "C-002",
		Track:  "C",
		Prompt: "The meeting on 3/14/2024 ran long. What happened?",
	}

	caps := RunChecks(item, "The meeting on 3/14/2024 might have run long because the agenda was unclear.")

	assert.Nil(t, caps.HallucinationAvoidance)
}

func TestRunChecks_HallucinatedTimeAndMeasurement(t *testing.T) {
	item := domain.CanonicalItem{
		ID:     "C-003",
		Track:  "C",
		Prompt: "What should I bring?",
	}

	caps := RunChecks(item, "Arrive at 3:30 pm with 5 kg of supplies.")

	require.NotNil(t, caps.HallucinationAvoidance)
	require.Len(t, caps.Reasons, 1)
	assert.Contains(t, caps.Reasons[0], "time: 3:30 pm")
	assert.Contains(t, caps.Reasons[0], "measurement: 5 kg")
}

func TestRunChecks_CertaintyLanguage(t *testing.T) {
	item := domain.CanonicalItem{ID: "D-001", Track: "D", Prompt: "Which option should we pick?"}

	tests := []struct {
		name     string
		response string
		capped   bool
	}{
		{"definitely triggers the cap", "Option A is definitely the right choice.", true},
		{"bare copula triggers the cap", "It is the best option available.", true},
		{"qualified copula is exempt", "It is possible that option A fits better.", false},
		{"certainty about uncertainty is exempt", "The requirements are definitely unclear here.", false},
		{"hedged response passes", "Option A might work, though it depends on the budget.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := RunChecks(item, tt.response)
			if tt.capped {
				require.NotNil(t, caps.EpistemicTone)
				assert.Equal(t, 1, *caps.EpistemicTone)
				assert.Contains(t, caps.Reasons,
					"Uses strong certainty language despite ambiguous prompt")
			} else {
				assert.Nil(t, caps.EpistemicTone)
			}
		})
	}
}

func TestRunChecks_UncertaintyPoints(t *testing.T) {
	item := domain.CanonicalItem{
		ID:     "E-001",
		Track:  "E",
		Prompt: "Submit it before the deadline.",
		AmbiguityProfile: domain.AmbiguityProfile{
			UncertaintyPoints: []domain.UncertaintyPoint{
				{Span: "the deadline", Issue: "which deadline applies"},
			},
		},
	}

	t.Run("ignoring every point caps localization", func(t *testing.T) {
		caps := RunChecks(item, "Submit the report by Friday.")
		require.NotNil(t, caps.LocalizationOfUncertainty)
		assert.Equal(t, 1, *caps.LocalizationOfUncertainty)
		assert.Contains(t, caps.Reasons,
			"Response doesn't acknowledge any of the key uncertainty points")
	})

	t.Run("exact span word acknowledges", func(t *testing.T) {
		caps := RunChecks(item, "The deadline you have in mind matters here, and I will plan for the earliest one.")
		assert.Nil(t, caps.LocalizationOfUncertainty)
	})

	t.Run("generic uncertainty language acknowledges", func(t *testing.T) {
		caps := RunChecks(item, "I am not sure when this needs to go out.")
		assert.Nil(t, caps.LocalizationOfUncertainty)
	})
}

func TestRunChecks_UncertaintyPoints_FuzzyMatch(t *testing.T) {
	item := domain.CanonicalItem{
		ID:     "E-002",
		Track:  "E",
		Prompt: "Plan around the deadlines.",
		AmbiguityProfile: domain.AmbiguityProfile{
			UncertaintyPoints: []domain.UncertaintyPoint{
				{Span: "deadlines", Issue: "ordering unknown"},
			},
		},
	}

	// "deadline" vs "deadlines" is a one-edit match above the similarity
	// threshold.
	caps := RunChecks(item, "The deadline falls on the last day of the quarter.")
	assert.Nil(t, caps.LocalizationOfUncertainty)
}

func TestRunChecks_CleanResponseNoCaps(t *testing.T) {
	item := underspecifiedItem("Book a table for dinner.")

	caps := RunChecks(item, "How many people should I book for, and do you have a time in mind?")

	assert.True(t, caps.IsEmpty())
	assert.Empty(t, caps.Reasons)
}
