package price

import (
	"encoding/json"
	"fmt"
	"os"
)

// Save writes the series to path as a JSON array, sorted by startsAt. The
// data is written to a temporary file beside path and renamed into place,
// so readers never observe a partially written file. The temporary file
// must live in the same directory as path or the rename is not atomic.
func Save(s Series, path string) error {
	data, err := json.MarshalIndent(s.points, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal price points: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("write price file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace price file: %w", err)
	}
	return nil
}

// Load reads a series from path. A missing file is not an error: it returns
// an empty series, as on first run. Points are sorted by startsAt after
// loading.
func Load(path string) (Series, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Series{}, nil
		}
		return Series{}, fmt.Errorf("read price file: %w", err)
	}

	var points []PricePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return Series{}, fmt.Errorf("parse price file: %w", err)
	}
	return NewSeries(points), nil
}
