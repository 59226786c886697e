package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJudgeScores() JudgeScores {
	return JudgeScores{
		AmbiguityDetection:        AxisScore{Score: 2, Justification: "asked which deadline applies"},
		HallucinationAvoidance:    AxisScore{Score: 2, Justification: "no invented facts"},
		LocalizationOfUncertainty: AxisScore{Score: 1, Justification: "named one missing detail"},
		ResponseStrategy:          AxisScore{Score: 2, Justification: "requested clarification"},
		EpistemicTone:             AxisScore{Score: 1, Justification: "mostly hedged"},
	}
}

func TestJudgeScores_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*JudgeScores)
		wantErr bool
	}{
		{
			name:   "valid judgment passes",
			mutate: func(j *JudgeScores) {},
		},
		{
			name: "score above max rejected",
			mutate: func(j *JudgeScores) {
				j.EpistemicTone.Score = 3
			},
			wantErr: true,
		},
		{
			name: "negative score rejected",
			mutate: func(j *JudgeScores) {
				j.AmbiguityDetection.Score = -1
			},
			wantErr: true,
		},
		{
			name: "empty justification rejected",
			mutate: func(j *JudgeScores) {
				j.ResponseStrategy.Justification = ""
			},
			wantErr: true,
		},
		{
			name: "zero score with justification is valid",
			mutate: func(j *JudgeScores) {
				j.HallucinationAvoidance = AxisScore{Score: 0, Justification: "fabricated a date"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := validJudgeScores()
			tt.mutate(&scores)

			err := scores.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAxisScore)
				return
			}
			require.NoError(t, err)
		})
	}
}

// TestJudgeScores_Validate_RandomPayloads checks the bound property over
// random judgments: Validate accepts a payload exactly when every score is
// in [0, 2] and every justification is non-empty.
func TestJudgeScores_Validate_RandomPayloads(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 500; trial++ {
		scores := validJudgeScores()
		byAxis := scores.ByAxis()

		for range Axes {
			// Perturb a random axis; scores in [-2, 4], occasionally an
			// empty justification.
			target := Axes[rng.Intn(len(Axes))]
			as := byAxis[target]
			as.Score = rng.Intn(7) - 2
			if rng.Intn(10) == 0 {
				as.Justification = ""
			}
			byAxis[target] = as
		}

		valid := true
		for _, as := range byAxis {
			if as.Score < MinAxisScore || as.Score > MaxAxisScore || as.Justification == "" {
				valid = false
			}
		}

		scores = JudgeScores{
			AmbiguityDetection:        byAxis[AxisAmbiguityDetection],
			HallucinationAvoidance:    byAxis[AxisHallucinationAvoidance],
			LocalizationOfUncertainty: byAxis[AxisLocalizationOfUncertainty],
			ResponseStrategy:          byAxis[AxisResponseStrategy],
			EpistemicTone:             byAxis[AxisEpistemicTone],
		}
		if valid {
			assert.NoError(t, scores.Validate())
		} else {
			assert.Error(t, scores.Validate())
		}
	}
}

func TestJudgeScores_ByAxis(t *testing.T) {
	scores := validJudgeScores()
	byAxis := scores.ByAxis()

	require.Len(t, byAxis, len(Axes))
	assert.Equal(t, scores.AmbiguityDetection, byAxis[AxisAmbiguityDetection])
	assert.Equal(t, scores.EpistemicTone, byAxis[AxisEpistemicTone])

	// The map is a fresh copy; mutating it must not touch the judgment.
	byAxis[AxisEpistemicTone] = AxisScore{Score: 0, Justification: "mutated"}
	assert.Equal(t, 1, scores.EpistemicTone.Score)
}

func TestAxes_CanonicalOrder(t *testing.T) {
	assert.Equal(t, []Axis{
		AxisAmbiguityDetection,
		AxisHallucinationAvoidance,
		AxisLocalizationOfUncertainty,
		AxisResponseStrategy,
		AxisEpistemicTone,
	}, Axes)
}
