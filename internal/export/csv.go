// Package export writes aggregated scrape results to the CLI's result sink.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/ternarybob/colligo/internal/models"
)

// WriteResultsCSV writes one row per result record. Columns are the sorted
// union of every record's top-level keys so differently-shaped rows still
// line up; nested values are JSON-encoded into their cell.
func WriteResultsCSV(path string, results []models.ResultRecord) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to write")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	columns := collectColumns(results)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, record := range results {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = formatCell(record[column])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush results file: %w", err)
	}
	return f.Sync()
}

// collectColumns returns the sorted union of top-level keys.
func collectColumns(results []models.ResultRecord) []string {
	seen := make(map[string]struct{})
	for _, record := range results {
		for key := range record {
			seen[key] = struct{}{}
		}
	}

	columns := make([]string, 0, len(seen))
	for key := range seen {
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// formatCell renders one value for its CSV cell. Scalars keep their natural
// form; maps and lists are JSON-encoded.
func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
