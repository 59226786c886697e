package domain

import (
	"sort"
	"time"
)

// ReportingScale is the factor converting a mean axis score (0-2) to the
// 0-10 range used for track, overall, and leaderboard scores.
const ReportingScale = 5.0

// ItemResult captures everything recorded for one scored item: the final
// (capped) per-axis scores plus the cost and latency of producing them.
type ItemResult struct {
	ItemID string `json:"item_id"`
	Track  string `json:"track"`

	// FinalScores maps each axis to its post-cap score and justification.
	FinalScores map[Axis]AxisScore `json:"final_scores"`

	// Caps records the mechanical caps that were in force, for audit.
	Caps MechanicalCaps `json:"mechanical_caps"`

	// Cost is the dollar cost of the candidate generation, when known.
	Cost float64 `json:"cost"`

	// LatencyMs is the candidate generation latency in milliseconds.
	LatencyMs float64 `json:"latency_ms"`
}

// OverallScore returns the item's overall score on the 0-10 reporting
// scale: the mean of the five final axis scores times ReportingScale.
// An item with no recorded scores reports 0.
func (r ItemResult) OverallScore() float64 {
	if len(r.FinalScores) == 0 {
		return 0
	}
	var sum float64
	for _, as := range r.FinalScores {
		sum += float64(as.Score)
	}
	return sum / float64(len(r.FinalScores)) * ReportingScale
}

// TrackSummary aggregates the items of a single track.
type TrackSummary struct {
	Track     string  `json:"track"`
	TrackName string  `json:"track_name"`
	ItemCount int     `json:"item_count"`
	MeanScore float64 `json:"mean_score"`
}

// EvaluationResult is the complete outcome of evaluating one model across
// a dataset: per-item results, per-track summaries, and the overall score.
type EvaluationResult struct {
	ModelID        string         `json:"model_id"`
	ModelName      string         `json:"model_name"`
	Timestamp      time.Time      `json:"timestamp"`
	OverallScore   float64        `json:"overall_score"`
	TrackSummaries []TrackSummary `json:"track_summaries"`
	ItemResults    []ItemResult   `json:"item_results"`
}

// BuildEvaluationResult folds per-item results into an EvaluationResult.
// Track summaries are emitted in ascending track order; the overall score is
// the mean of all items' overall scores on the 0-10 scale. trackNames maps
// track ids to display names and may be nil.
func BuildEvaluationResult(
	modelID, modelName string,
	items []ItemResult,
	trackNames map[string]string,
	now time.Time,
) EvaluationResult {
	result := EvaluationResult{
		ModelID:     modelID,
		ModelName:   modelName,
		Timestamp:   now,
		ItemResults: items,
	}

	byTrack := make(map[string][]float64)
	var total float64
	for _, item := range items {
		score := item.OverallScore()
		byTrack[item.Track] = append(byTrack[item.Track], score)
		total += score
	}
	if len(items) > 0 {
		result.OverallScore = total / float64(len(items))
	}

	tracks := make([]string, 0, len(byTrack))
	for track := range byTrack {
		tracks = append(tracks, track)
	}
	sort.Strings(tracks)

	for _, track := range tracks {
		scores := byTrack[track]
		var sum float64
		for _, s := range scores {
			sum += s
		}
		result.TrackSummaries = append(result.TrackSummaries, TrackSummary{
			Track:     track,
			TrackName: trackNames[track],
			ItemCount: len(scores),
			MeanScore: sum / float64(len(scores)),
		})
	}

	return result
}

// AxisMeans computes the mean raw score per axis across all item results,
// on the native 0-2 scale. Axes with no recorded scores report 0.
func AxisMeans(items []ItemResult) map[Axis]float64 {
	sums := make(map[Axis]float64, len(Axes))
	counts := make(map[Axis]int, len(Axes))
	for _, item := range items {
		for axis, as := range item.FinalScores {
			sums[axis] += float64(as.Score)
			counts[axis]++
		}
	}

	means := make(map[Axis]float64, len(Axes))
	for _, axis := range Axes {
		if counts[axis] > 0 {
			means[axis] = sums[axis] / float64(counts[axis])
		} else {
			means[axis] = 0
		}
	}
	return means
}

// Averages returns the mean cost and latency across items, or zeros for an
// empty item set.
func Averages(items []ItemResult) (avgCost, avgLatency float64) {
	if len(items) == 0 {
		return 0, 0
	}
	for _, item := range items {
		avgCost += item.Cost
		avgLatency += item.LatencyMs
	}
	n := float64(len(items))
	return avgCost / n, avgLatency / n
}
