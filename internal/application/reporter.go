package application

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gustycube/erreval/internal/domain"
	"github.com/gustycube/erreval/internal/ports"
)

// WriteResultsJSON persists a run's full evaluation result as indented
// JSON, creating parent directories as needed. The write is atomic
// (temp file + rename) so a crash never leaves a truncated result.
func WriteResultsJSON(result domain.EvaluationResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return writeFileAtomic(path, data)
}

// WriteMarkdownReport renders a human-readable summary of a run.
func WriteMarkdownReport(result domain.EvaluationResult, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Evaluation Report: %s\n\n", result.ModelName)
	fmt.Fprintf(&b, "- Model: `%s`\n", result.ModelID)
	fmt.Fprintf(&b, "- Evaluated: %s\n", result.Timestamp.Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(&b, "- Items: %d\n\n", len(result.ItemResults))
	fmt.Fprintf(&b, "## Overall Score: %.2f / 10\n\n", result.OverallScore)

	b.WriteString("## Track Breakdown\n\n")
	b.WriteString("| Track | Name | Items | Score |\n")
	b.WriteString("| --- | --- | ---: | ---: |\n")
	for _, ts := range result.TrackSummaries {
		fmt.Fprintf(&b, "| %s | %s | %d | %.2f |\n", ts.Track, ts.TrackName, ts.ItemCount, ts.MeanScore)
	}

	b.WriteString("\n## Axis Means (0-2)\n\n")
	means := domain.AxisMeans(result.ItemResults)
	for _, axis := range domain.Axes {
		fmt.Fprintf(&b, "- %s: %.2f\n", axis, means[axis])
	}

	capped := 0
	for _, item := range result.ItemResults {
		if !item.Caps.IsEmpty() {
			capped++
		}
	}
	fmt.Fprintf(&b, "\n%d of %d items had at least one mechanical cap applied.\n", capped, len(result.ItemResults))

	return writeFileAtomic(path, []byte(b.String()))
}

var _ ports.LeaderboardStore = (*LeaderboardFile)(nil)

// LeaderboardFile stores the cross-run leaderboard as a single JSON
// document. A missing or structurally invalid file (no "entries" key) is
// reinitialized to an empty leaderboard rather than treated as fatal.
// Merge is a full read-modify-sort-write cycle; the caller guarantees at
// most one concurrent writer.
type LeaderboardFile struct {
	path string
}

// NewLeaderboardFile creates a store backed by the given path.
func NewLeaderboardFile(path string) *LeaderboardFile {
	return &LeaderboardFile{path: path}
}

// Load reads the persisted leaderboard, reinitializing when absent or
// structurally invalid.
func (s *LeaderboardFile) Load() (*domain.Leaderboard, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewLeaderboard(), nil
		}
		return nil, fmt.Errorf("reading leaderboard: %w", err)
	}

	// Structural validity requires a top-level "entries" key; anything
	// else is treated as corrupt and reinitialized.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return domain.NewLeaderboard(), nil
	}
	if _, ok := probe["entries"]; !ok {
		return domain.NewLeaderboard(), nil
	}

	var lb domain.Leaderboard
	if err := json.Unmarshal(data, &lb); err != nil {
		return domain.NewLeaderboard(), nil
	}
	if lb.Providers == nil {
		lb.Providers = make(map[string]string)
	}
	if lb.DatasetVersion == "" {
		lb.DatasetVersion = "canonical"
	}
	return &lb, nil
}

// Merge folds the entry into the persisted leaderboard, rebuilds the
// ranking, and writes the document back atomically.
func (s *LeaderboardFile) Merge(entry domain.LeaderboardEntry) (*domain.Leaderboard, error) {
	lb, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := lb.Merge(entry); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(lb, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding leaderboard: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return nil, err
	}
	return lb, nil
}

// ModelIDs returns the ids already present on the persisted leaderboard,
// sorted, for skip-existing batch runs.
func (s *LeaderboardFile) ModelIDs() ([]string, error) {
	lb, err := s.Load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		ids = append(ids, e.ModelID)
	}
	sort.Strings(ids)
	return ids, nil
}

// ResultsPath derives the per-run results file path for a model and seed,
// replacing the id's slashes so it is filesystem-safe.
func ResultsPath(dir, modelID string, seed int64) string {
	safe := strings.ReplaceAll(modelID, "/", "_")
	return filepath.Join(dir, fmt.Sprintf("%s_%d.json", safe, seed))
}

// writeFileAtomic writes data via a temp file and rename so readers never
// observe a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
