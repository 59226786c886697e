package application

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gustycube/erreval/internal/domain"
	"github.com/gustycube/erreval/internal/ports"
)

// maxItemLineBytes bounds a single dataset line; canonical items are small
// but prompts can run long.
const maxItemLineBytes = 1 << 20

var _ ports.DatasetLoader = (*JSONLDataset)(nil)

// JSONLDataset loads canonical items from a line-delimited JSON file, one
// item per line. Blank lines are skipped; a malformed line fails the load
// with its line number.
type JSONLDataset struct {
	path string
}

// NewJSONLDataset creates a loader for the given dataset file.
func NewJSONLDataset(path string) *JSONLDataset {
	return &JSONLDataset{path: path}
}

// Load reads the dataset, keeping only items in the requested tracks and at
// most limit items per track. A nil or empty tracks slice selects every
// track; limit <= 0 disables the per-track bound. Item order within a
// track follows file order.
func (d *JSONLDataset) Load(ctx context.Context, tracks []string, limit int) ([]domain.CanonicalItem, error) {
	file, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset: %w", err)
	}
	defer file.Close()

	wanted := make(map[string]struct{}, len(tracks))
	for _, t := range tracks {
		wanted[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}

	perTrack := make(map[string]int)
	var items []domain.CanonicalItem

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxItemLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var item domain.CanonicalItem
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("dataset line %d: %w", lineNo, err)
		}

		if len(wanted) > 0 {
			if _, ok := wanted[strings.ToUpper(item.Track)]; !ok {
				continue
			}
		}
		if limit > 0 && perTrack[item.Track] >= limit {
			continue
		}

		perTrack[item.Track]++
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	return items, nil
}

// TrackNames extracts the track-id to display-name mapping carried by the
// items themselves. Tracks without a name map to the empty string.
func TrackNames(items []domain.CanonicalItem) map[string]string {
	names := make(map[string]string)
	for _, item := range items {
		if item.TrackName != "" {
			names[item.Track] = item.TrackName
		} else if _, ok := names[item.Track]; !ok {
			names[item.Track] = ""
		}
	}
	return names
}
