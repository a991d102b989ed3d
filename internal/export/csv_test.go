package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/colligo/internal/models"
)

func TestWriteResultsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	results := []models.ResultRecord{
		{
			"name":      "Alice Example",
			"headline":  "Engineer",
			"followers": float64(1200),
			"skills":    []interface{}{"go", "sql"},
		},
		{
			"name":     "Bob Example",
			"location": "Sydney",
			"premium":  true,
		},
	}

	require.NoError(t, WriteResultsCSV(path, results))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3, "header + 2 records")

	// Header is the sorted union of keys from both records.
	assert.Equal(t, []string{"followers", "headline", "location", "name", "premium", "skills"}, rows[0])

	first := rows[1]
	assert.Equal(t, "Alice Example", first[3])
	assert.Equal(t, "1200", first[0])
	assert.Equal(t, `["go","sql"]`, first[5], "nested values are JSON-encoded")
	assert.Empty(t, first[2], "missing keys render as empty cells")

	second := rows[2]
	assert.Equal(t, "true", second[4])
}

func TestWriteResultsCSV_NoResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")

	err := WriteResultsCSV(path, nil)
	require.Error(t, err, "empty results must not produce a file")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created for empty results")
}

func TestWriteResultsCSV_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "results.csv")

	results := []models.ResultRecord{{"name": "Carol"}}
	require.NoError(t, WriteResultsCSV(path, results))

	_, err := os.Stat(path)
	assert.NoError(t, err, "output file should exist")
}
