package domain

// MechanicalCaps holds per-axis score ceilings produced by the mechanical
// check engine, plus the human-readable reasons for each check that fired.
// A nil cap means the axis is unconstrained. Caps only ever lower a judge's
// score; they never raise one.
type MechanicalCaps struct {
	AmbiguityDetection        *int `json:"ambiguity_detection,omitempty"`
	HallucinationAvoidance    *int `json:"hallucination_avoidance,omitempty"`
	LocalizationOfUncertainty *int `json:"localization_of_uncertainty,omitempty"`
	ResponseStrategy          *int `json:"response_strategy,omitempty"`
	EpistemicTone             *int `json:"epistemic_tone,omitempty"`

	// Reasons explains which checks fired, in check order.
	Reasons []string `json:"reasons,omitempty"`
}

// Cap returns the ceiling for the given axis, or nil if unconstrained.
func (m *MechanicalCaps) Cap(axis Axis) *int {
	switch axis {
	case AxisAmbiguityDetection:
		return m.AmbiguityDetection
	case AxisHallucinationAvoidance:
		return m.HallucinationAvoidance
	case AxisLocalizationOfUncertainty:
		return m.LocalizationOfUncertainty
	case AxisResponseStrategy:
		return m.ResponseStrategy
	case AxisEpistemicTone:
		return m.EpistemicTone
	default:
		return nil
	}
}

// Tighten lowers the ceiling for axis to ceiling. An existing stricter cap
// is kept; caps combine across checks by taking the per-axis minimum.
func (m *MechanicalCaps) Tighten(axis Axis, ceiling int) {
	target := m.slot(axis)
	if target == nil {
		return
	}
	if *target == nil || **target > ceiling {
		c := ceiling
		*target = &c
	}
}

// IsEmpty reports whether no check imposed any cap.
func (m *MechanicalCaps) IsEmpty() bool {
	for _, axis := range Axes {
		if m.Cap(axis) != nil {
			return false
		}
	}
	return true
}

func (m *MechanicalCaps) slot(axis Axis) **int {
	switch axis {
	case AxisAmbiguityDetection:
		return &m.AmbiguityDetection
	case AxisHallucinationAvoidance:
		return &m.HallucinationAvoidance
	case AxisLocalizationOfUncertainty:
		return &m.LocalizationOfUncertainty
	case AxisResponseStrategy:
		return &m.ResponseStrategy
	case AxisEpistemicTone:
		return &m.EpistemicTone
	default:
		return nil
	}
}

// ApplyCaps merges judge scores with mechanical caps into the final per-axis
// scores: final = min(judge, cap) where a cap exists, the judge score
// otherwise. Justifications pass through untouched. The function is pure and
// total over well-formed inputs; the input map is never mutated.
func ApplyCaps(scores map[Axis]AxisScore, caps MechanicalCaps) map[Axis]AxisScore {
	final := make(map[Axis]AxisScore, len(scores))
	for axis, as := range scores {
		if ceiling := caps.Cap(axis); ceiling != nil && as.Score > *ceiling {
			as.Score = *ceiling
		}
		final[axis] = as
	}
	return final
}
