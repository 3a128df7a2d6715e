package monitor

import (
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"
)

func openMemory(t *testing.T) *Storage {
	t.Helper()
	st, err := OpenStorage(":memory:")
	assert.NilError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoragePutAndReports(t *testing.T) {
	st := openMemory(t)
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.NilError(t, st.Put(Report{Session: "a", Worker: "w1", Type: IterationReport, Epoch: 1, Iteration: 5, Score: 0.5, Time: t0}))
	assert.NilError(t, st.Put(Report{Session: "a", Worker: "w1", Type: ValidationReport, Epoch: 1, Iteration: 5, Score: 0.4,
		Metrics: map[string]float64{"mse": 0.4, "r2": 0.3}, Time: t0.Add(time.Second)}))
	assert.NilError(t, st.Put(Report{Session: "b", Worker: "w2", Type: EpochReport, Epoch: 3, Time: t0.Add(time.Minute)}))

	reports, err := st.Reports("a")
	assert.NilError(t, err)
	assert.Equal(t, len(reports), 2)
	assert.Equal(t, reports[0].Type, IterationReport)
	assert.Equal(t, reports[0].Score, 0.5)
	assert.Assert(t, reports[0].Time.Equal(t0))
	assert.Assert(t, reports[0].Metrics == nil)
	assert.DeepEqual(t, reports[1].Metrics, map[string]float64{"mse": 0.4, "r2": 0.3})

	validation, err := st.Reports("a", ValidationReport)
	assert.NilError(t, err)
	assert.Equal(t, len(validation), 1)

	none, err := st.Reports("missing")
	assert.NilError(t, err)
	assert.Equal(t, len(none), 0)
}

func TestStorageSessions(t *testing.T) {
	st := openMemory(t)
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.NilError(t, st.Put(Report{Session: "old", Worker: "w", Type: EpochReport, Epoch: 2, Time: t0}))
	assert.NilError(t, st.Put(Report{Session: "old", Worker: "w", Type: EpochReport, Epoch: 4, Time: t0.Add(time.Second)}))
	assert.NilError(t, st.Put(Report{Session: "new", Worker: "w", Type: EpochReport, Epoch: 1, Time: t0.Add(time.Hour)}))

	sessions, err := st.Sessions()
	assert.NilError(t, err)
	assert.Equal(t, len(sessions), 2)
	assert.Equal(t, sessions[0].ID, "new")
	assert.Equal(t, sessions[1].ID, "old")
	assert.Equal(t, sessions[1].Reports, 2)
	assert.Equal(t, sessions[1].Epoch, 4)
}

func TestStorageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ui", "stats.db")
	st, err := OpenStorage(path)
	assert.NilError(t, err)
	assert.NilError(t, st.Put(Report{Session: "s", Worker: "w", Type: EpochReport, Time: time.Now()}))
	assert.NilError(t, st.Close())

	st, err = OpenStorage(path)
	assert.NilError(t, err)
	defer st.Close()
	reports, err := st.Reports("s")
	assert.NilError(t, err)
	assert.Equal(t, len(reports), 1)
}
