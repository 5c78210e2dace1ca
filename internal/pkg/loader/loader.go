// Package loader reads provider feeds from disk into records the sync
// engine can consume. CSV and JSON feeds are supported; cell values are
// coerced into dates and numbers where they parse as such so that the
// matching predicates see typed values.
package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"sportsync/internal/pkg/config"
	syncpkg "sportsync/internal/sync"
)

// Load reads one provider feed described by cfg. The format is taken
// from cfg.Format, falling back to the file extension.
func Load(cfg config.ProviderConfig) (syncpkg.SyncableContent, error) {
	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(cfg.Path), ".")
	}

	var (
		records []syncpkg.Record
		err     error
	)
	switch format {
	case "csv":
		records, err = LoadCSV(cfg.Path)
	case "json":
		records, err = LoadJSON(cfg.Path)
	default:
		return syncpkg.SyncableContent{}, fmt.Errorf("provider %q: unsupported format %q", cfg.Name, format)
	}
	if err != nil {
		return syncpkg.SyncableContent{}, fmt.Errorf("provider %q: %w", cfg.Name, err)
	}

	return syncpkg.SyncableContent{Provider: cfg.Name, Records: records}, nil
}

// LoadCSV reads a CSV file with a header row into records. Empty cells
// become nulls so incomplete feeds do not fabricate values.
func LoadCSV(path string) ([]syncpkg.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []syncpkg.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		record := make(syncpkg.Record, len(header))
		for i, col := range header {
			if i >= len(row) {
				break
			}
			record[col] = coerce(row[i])
		}
		records = append(records, record)
	}

	return records, nil
}

// LoadJSON reads a JSON array of objects into records.
func LoadJSON(path string) ([]syncpkg.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json file: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse json file: %w", err)
	}

	records := make([]syncpkg.Record, 0, len(raw))
	for _, obj := range raw {
		record := make(syncpkg.Record, len(obj))
		for k, v := range obj {
			if s, ok := v.(string); ok {
				record[k] = coerce(s)
				continue
			}
			record[k] = v
		}
		records = append(records, record)
	}

	return records, nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// coerce turns a raw cell into a typed value. Empty strings become nil,
// parseable dates become time.Time, integers become int64.
func coerce(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
