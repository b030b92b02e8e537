package performance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantroll/stratagem/internal/database"
)

func testRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "performance.db"),
		Profile: database.ProfileLedger,
		Name:    "performance-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewRepository(db)
	require.NoError(t, err)
	return repo
}

func TestRepositoryOutcomesRoundTrip(t *testing.T) {
	repo := testRepository(t)

	require.NoError(t, repo.InsertOutcome("IRON_CONDOR", 0.04, true))
	require.NoError(t, repo.InsertOutcome("IRON_CONDOR", -0.02, false))
	require.NoError(t, repo.InsertOutcome("IRON_FLY", 0.01, true))

	records, err := repo.LoadRecords(100)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byVariant := make(map[string]*Record)
	for _, r := range records {
		byVariant[r.Variant] = r
	}

	condor := byVariant["IRON_CONDOR"]
	require.NotNil(t, condor)
	assert.Equal(t, 2, condor.Trades)
	assert.Equal(t, 1, condor.Wins)
	assert.InDelta(t, 0.02, condor.CumulativeReturn, 1e-9)
	assert.Equal(t, []float64{0.04, -0.02}, condor.Window)
}

func TestRepositoryLoadRecordsHonorsWindow(t *testing.T) {
	repo := testRepository(t)

	for i := 0; i < 8; i++ {
		require.NoError(t, repo.InsertOutcome("IRON_CONDOR", float64(i), true))
	}

	records, err := repo.LoadRecords(3)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 8, records[0].Trades)
	assert.Equal(t, []float64{5, 6, 7}, records[0].Window, "window keeps only the newest returns")
}

func TestRepositoryEliminationsRoundTrip(t *testing.T) {
	repo := testRepository(t)

	entry := Elimination{
		Variant:      "RATIO_SPREAD",
		Reason:       "win rate 0.20 below 0.30",
		EliminatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, repo.SaveElimination(entry))
	// Conflict on re-save keeps the original
	require.NoError(t, repo.SaveElimination(Elimination{Variant: "RATIO_SPREAD", Reason: "other"}))

	loaded, err := repo.LoadEliminations()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, entry.Variant, loaded[0].Variant)
	assert.Equal(t, entry.Reason, loaded[0].Reason)

	require.NoError(t, repo.DeleteElimination("RATIO_SPREAD"))
	loaded, err = repo.LoadEliminations()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRepositorySelectionLabeling(t *testing.T) {
	repo := testRepository(t)

	features := []float64{0.18, 0.1, 0, 0.5, 0.44, 0, 0, 1, 0, 0, 0, 0}
	require.NoError(t, repo.InsertSelection("IRON_FLY", features))
	require.NoError(t, repo.InsertSelection("IRON_FLY", features))

	n, err := repo.CountLabeled()
	require.NoError(t, err)
	assert.Zero(t, n)

	// Oldest pending selection is the one that gets the label
	require.NoError(t, repo.LabelOldestSelection("IRON_FLY", true))

	n, err = repo.CountLabeled()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	data, err := repo.TrainingData(10)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, "IRON_FLY", data[0].Variant)
	assert.True(t, data[0].Won)
	assert.InDeltaSlice(t, features, data[0].Features, 1e-12)
}

func TestRepositorySaveCalibration(t *testing.T) {
	repo := testRepository(t)

	last, err := repo.LastCalibration()
	require.NoError(t, err)
	assert.True(t, last.IsZero(), "no calibration recorded yet")

	ranAt := time.Date(2026, 8, 23, 16, 0, 0, 0, time.UTC)
	entries := []Elimination{
		{Variant: "RATIO_SPREAD", Reason: "win rate 0.20 below 0.30", EliminatedAt: ranAt},
		{Variant: "IRON_FLY", Reason: "consistency 0.10 below 0.20", EliminatedAt: ranAt},
	}
	require.NoError(t, repo.SaveCalibration(ranAt, entries))

	// Suppressions and the run record land together
	loaded, err := repo.LoadEliminations()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	last, err = repo.LastCalibration()
	require.NoError(t, err)
	assert.True(t, ranAt.Equal(last))

	// A pass with no eliminations still logs the run
	next := ranAt.Add(7 * 24 * time.Hour)
	require.NoError(t, repo.SaveCalibration(next, nil))
	last, err = repo.LastCalibration()
	require.NoError(t, err)
	assert.True(t, next.Equal(last))
}
