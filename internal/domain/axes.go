// Package domain contains the core value objects and pure functions of the
// ERR-EVAL scoring pipeline: scoring axes, canonical benchmark items,
// mechanical score caps, per-run aggregation, and the persistent leaderboard.
// Everything in this package is free of I/O and safe for concurrent use.
package domain

import "fmt"

// Axis identifies one of the five fixed epistemic-reliability dimensions
// every response is scored on.
type Axis string

// The five scoring axes. The set is fixed; judge scores and mechanical caps
// always reference exactly these axes.
const (
	AxisAmbiguityDetection        Axis = "ambiguity_detection"
	AxisHallucinationAvoidance    Axis = "hallucination_avoidance"
	AxisLocalizationOfUncertainty Axis = "localization_of_uncertainty"
	AxisResponseStrategy          Axis = "response_strategy"
	AxisEpistemicTone             Axis = "epistemic_tone"
)

// Axes lists the five scoring axes in their canonical order.
// Callers must not mutate the returned slice.
var Axes = []Axis{
	AxisAmbiguityDetection,
	AxisHallucinationAvoidance,
	AxisLocalizationOfUncertainty,
	AxisResponseStrategy,
	AxisEpistemicTone,
}

// String returns the wire name of the axis.
func (a Axis) String() string { return string(a) }

// Score bounds for a single axis.
const (
	MinAxisScore = 0
	MaxAxisScore = 2
)

// AxisScore is one judged dimension: an integer score in [0, 2] and the
// judge's justification for it.
type AxisScore struct {
	Score         int    `json:"score" validate:"min=0,max=2"`
	Justification string `json:"justification" validate:"required,min=1"`
}

// JudgeScores holds the complete five-axis judgment for a single response.
// A partial judgment is invalid; Validate rejects any missing justification
// or out-of-range score.
type JudgeScores struct {
	AmbiguityDetection        AxisScore `json:"ambiguity_detection" validate:"required"`
	HallucinationAvoidance    AxisScore `json:"hallucination_avoidance" validate:"required"`
	LocalizationOfUncertainty AxisScore `json:"localization_of_uncertainty" validate:"required"`
	ResponseStrategy          AxisScore `json:"response_strategy" validate:"required"`
	EpistemicTone             AxisScore `json:"epistemic_tone" validate:"required"`
}

// ByAxis returns the judgment as an axis-keyed map. The map is freshly
// allocated on every call, so callers may mutate it freely.
func (j JudgeScores) ByAxis() map[Axis]AxisScore {
	return map[Axis]AxisScore{
		AxisAmbiguityDetection:        j.AmbiguityDetection,
		AxisHallucinationAvoidance:    j.HallucinationAvoidance,
		AxisLocalizationOfUncertainty: j.LocalizationOfUncertainty,
		AxisResponseStrategy:          j.ResponseStrategy,
		AxisEpistemicTone:             j.EpistemicTone,
	}
}

// Validate checks that all five axes carry an in-range score and a non-empty
// justification.
func (j JudgeScores) Validate() error {
	for axis, as := range j.ByAxis() {
		if as.Score < MinAxisScore || as.Score > MaxAxisScore {
			return fmt.Errorf("%w: axis %s score %d outside [%d, %d]",
				ErrInvalidAxisScore, axis, as.Score, MinAxisScore, MaxAxisScore)
		}
		if as.Justification == "" {
			return fmt.Errorf("%w: axis %s has empty justification", ErrInvalidAxisScore, axis)
		}
	}
	return nil
}
