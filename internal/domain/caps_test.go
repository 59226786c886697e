package domain

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// TestApplyCaps verifies that caps only ever clamp scores downward and
// that uncapped axes pass through unchanged.
func TestApplyCaps(t *testing.T) {
	tests := []struct {
		name     string
		scores   map[Axis]AxisScore
		caps     MechanicalCaps
		expected map[Axis]int
	}{
		{
			name: "no caps leaves scores untouched",
			scores: map[Axis]AxisScore{
				AxisAmbiguityDetection: {Score: 2, Justification: "noted the ambiguity"},
				AxisEpistemicTone:      {Score: 1, Justification: "hedged appropriately"},
			},
			caps: MechanicalCaps{},
			expected: map[Axis]int{
				AxisAmbiguityDetection: 2,
				AxisEpistemicTone:      1,
			},
		},
		{
			name: "cap clamps a higher judge score",
			scores: map[Axis]AxisScore{
				AxisHallucinationAvoidance: {Score: 2, Justification: "no invented facts"},
			},
			caps: MechanicalCaps{HallucinationAvoidance: intPtr(1)},
			expected: map[Axis]int{
				AxisHallucinationAvoidance: 1,
			},
		},
		{
			name: "cap never raises a lower judge score",
			scores: map[Axis]AxisScore{
				AxisResponseStrategy: {Score: 0, Justification: "answered outright"},
			},
			caps: MechanicalCaps{ResponseStrategy: intPtr(1)},
			expected: map[Axis]int{
				AxisResponseStrategy: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final := ApplyCaps(tt.scores, tt.caps)
			require.Len(t, final, len(tt.expected))
			for axis, want := range tt.expected {
				assert.Equal(t, want, final[axis].Score, "axis %s", axis)
				assert.Equal(t, tt.scores[axis].Justification, final[axis].Justification,
					"justification must pass through for axis %s", axis)
			}
		})
	}
}

// TestApplyCaps_NeverIncreases is a property check over random judge
// scores and caps: for every axis, final <= judge and final <= cap when a
// cap exists.
func TestApplyCaps_NeverIncreases(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 500; trial++ {
		scores := make(map[Axis]AxisScore, len(Axes))
		var caps MechanicalCaps
		for _, axis := range Axes {
			scores[axis] = AxisScore{Score: rng.Intn(3), Justification: "j"}
			if rng.Intn(2) == 0 {
				caps.Tighten(axis, rng.Intn(3))
			}
		}

		final := ApplyCaps(scores, caps)
		for _, axis := range Axes {
			assert.LessOrEqual(t, final[axis].Score, scores[axis].Score)
			if ceiling := caps.Cap(axis); ceiling != nil {
				assert.LessOrEqual(t, final[axis].Score, *ceiling)
			}
		}
	}
}

// TestApplyCaps_DoesNotMutateInput guards the pure-function contract.
func TestApplyCaps_DoesNotMutateInput(t *testing.T) {
	scores := map[Axis]AxisScore{
		AxisEpistemicTone: {Score: 2, Justification: "confident"},
	}
	caps := MechanicalCaps{EpistemicTone: intPtr(0)}

	_ = ApplyCaps(scores, caps)

	assert.Equal(t, 2, scores[AxisEpistemicTone].Score)
}

// TestMechanicalCaps_Tighten verifies minimum-cap aggregation: a looser
// cap never replaces a stricter one.
func TestMechanicalCaps_Tighten(t *testing.T) {
	var caps MechanicalCaps

	caps.Tighten(AxisEpistemicTone, 1)
	require.NotNil(t, caps.EpistemicTone)
	assert.Equal(t, 1, *caps.EpistemicTone)

	caps.Tighten(AxisEpistemicTone, 2)
	assert.Equal(t, 1, *caps.EpistemicTone, "looser cap must not replace stricter one")

	caps.Tighten(AxisEpistemicTone, 0)
	assert.Equal(t, 0, *caps.EpistemicTone, "stricter cap must replace looser one")
}

func TestMechanicalCaps_IsEmpty(t *testing.T) {
	var caps MechanicalCaps
	assert.True(t, caps.IsEmpty())

	caps.Tighten(AxisAmbiguityDetection, 1)
	assert.False(t, caps.IsEmpty())
}
