package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

// LeaderboardEntry is one model's aggregated, ranked result across a full
// evaluation run. Rank and Percentile are derived by Leaderboard.Merge and
// are never meaningful independently of a full re-sort.
type LeaderboardEntry struct {
	Rank           int                `json:"rank"`
	ModelID        string             `json:"model_id"`
	ModelName      string             `json:"model_name"`
	Provider       string             `json:"provider"`
	OverallScore   float64            `json:"overall_score"`
	Percentile     float64            `json:"percentile"`
	TrackScores    map[string]float64 `json:"track_scores"`
	AxisScores     map[Axis]float64   `json:"axis_scores"`
	ItemsEvaluated int                `json:"items_evaluated"`
	AvgLatency     float64            `json:"avg_latency"`
	AvgCost        float64            `json:"avg_cost"`
	EvaluatedAt    time.Time          `json:"evaluated_at"`
}

// Leaderboard is the persistent, ranked collection of one entry per model.
type Leaderboard struct {
	GeneratedAt    time.Time          `json:"generated_at"`
	DatasetVersion string             `json:"dataset_version"`
	Providers      map[string]string  `json:"providers"`
	Entries        []LeaderboardEntry `json:"entries"`
}

// NewLeaderboard returns an empty leaderboard with initialized metadata.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		DatasetVersion: "canonical",
		Providers:      make(map[string]string),
		Entries:        nil,
	}
}

// ProviderFromModelID derives the provider key from a model id: the text
// before the first "/", or the whole id if no slash is present.
func ProviderFromModelID(modelID string) string {
	if idx := strings.Index(modelID, "/"); idx >= 0 {
		return modelID[:idx]
	}
	return modelID
}

// NewLeaderboardEntry builds an unranked entry from an evaluation result.
// Rank and percentile are assigned by Merge.
func NewLeaderboardEntry(result EvaluationResult) (LeaderboardEntry, error) {
	if result.ModelID == "" {
		return LeaderboardEntry{}, ErrEmptyModelID
	}

	trackScores := make(map[string]float64, len(result.TrackSummaries))
	for _, ts := range result.TrackSummaries {
		trackScores[ts.Track] = ts.MeanScore
	}

	axisScores := make(map[Axis]float64, len(Axes))
	for axis, mean := range AxisMeans(result.ItemResults) {
		axisScores[axis] = round(mean, 2)
	}

	avgCost, avgLatency := Averages(result.ItemResults)

	return LeaderboardEntry{
		ModelID:        result.ModelID,
		ModelName:      result.ModelName,
		Provider:       ProviderFromModelID(result.ModelID),
		OverallScore:   result.OverallScore,
		TrackScores:    trackScores,
		AxisScores:     axisScores,
		ItemsEvaluated: len(result.ItemResults),
		AvgLatency:     round(avgLatency, 2),
		AvgCost:        round(avgCost, 6),
		EvaluatedAt:    result.Timestamp,
	}, nil
}

// Merge replaces any existing entry for the new entry's model id, appends
// the new entry, and rebuilds the full ranking: entries are sorted by
// overall score descending (stable on ties), rank is the 1-based position,
// and percentile is round(100*(N-position)/N, 1) so the top entry holds
// 100.0 and the bottom entry approaches, but never reaches, 0. Metadata is
// refreshed to the new run's timestamp. A full rebuild on every merge keeps
// ranking correct under arbitrary insertion order; leaderboards stay small
// enough that incremental updates are not worth the complexity.
func (l *Leaderboard) Merge(entry LeaderboardEntry) error {
	if entry.ModelID == "" {
		return ErrEmptyModelID
	}

	kept := l.Entries[:0]
	for _, e := range l.Entries {
		if e.ModelID != entry.ModelID {
			kept = append(kept, e)
		}
	}
	l.Entries = append(kept, entry)

	sort.SliceStable(l.Entries, func(i, j int) bool {
		return l.Entries[i].OverallScore > l.Entries[j].OverallScore
	})

	total := len(l.Entries)
	for i := range l.Entries {
		l.Entries[i].Rank = i + 1
		l.Entries[i].Percentile = round(100*float64(total-i)/float64(total), 1)
	}

	if l.Providers == nil {
		l.Providers = make(map[string]string)
	}
	if _, ok := l.Providers[entry.Provider]; !ok {
		l.Providers[entry.Provider] = entry.Provider
	}
	l.GeneratedAt = entry.EvaluatedAt

	return nil
}

// round rounds v to the given number of decimal places, half away from
// zero, matching the rounding the leaderboard file format expects.
func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
