package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedgov/schedgov/pkg/core"
)

func sampleRecords() []Record {
	base := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	return []Record{
		{Generation: 1, BestFitness: 0.42, AverageFitness: 0.31, DiversityScore: 0.08, Timestamp: Timestamp{Time: base}},
		{Generation: 2, BestFitness: 0.51, AverageFitness: 0.36, DiversityScore: 0.07, Timestamp: Timestamp{Time: base.Add(30 * time.Second)}},
		{Generation: 3, BestFitness: 0.51, AverageFitness: 0.40, DiversityScore: 0.05, Timestamp: Timestamp{Time: base.Add(time.Minute)}},
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	store := NewCSVStore(path)

	require.NoError(t, store.Save(sampleRecords()))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, sampleRecords(), loaded)
}

func TestCSVStoreHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	store := NewCSVStore(path)

	records := sampleRecords()
	records[0].BestParameters = core.ParameterVector{0.1, 0.2, 0.3, 0.4, 0.5}
	require.NoError(t, store.Save(records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "generation,best_fitness,average_fitness,diversity_score,timestamp",
		strings.TrimSpace(lines[0]), "parameters stay off the wire format")
	assert.Len(t, lines, 4)
}

func TestCSVStoreSaveReplacesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	store := NewCSVStore(path)

	require.NoError(t, store.Save(sampleRecords()))
	require.NoError(t, store.Save(sampleRecords()[:1]))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, 1, loaded[0].Generation)
}

func TestCSVStoreMissingFileIsEmptyHistory(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "absent.csv"))
	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(sampleRecords()))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleRecords(), loaded)
}

func TestSQLiteStoreSaveReplacesPreviousContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(sampleRecords()))
	require.NoError(t, store.Save(nil))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStoresSatisfyInterface(t *testing.T) {
	var _ Store = (*CSVStore)(nil)
	var _ Store = (*SQLiteStore)(nil)
}
