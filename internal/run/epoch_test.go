package run

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func touch(t *testing.T, path string) {
	t.Helper()
	assert.NilError(t, os.WriteFile(path, nil, 0o644))
}

func TestOutputFolder(t *testing.T) {
	got := OutputFolder("data/model", "add_wine_type_shuffle_standardize", "multilayer_less_overfit_large_batch_size")
	assert.Equal(t, got, filepath.Join("data", "model", "add_wine_type_shuffle_standardize", "multilayer_less_overfit_large_batch_size"))
}

func TestEpochFile(t *testing.T) {
	assert.Equal(t, EpochFile("out", 300), filepath.Join("out", "epoch_300.zip"))
}

func TestLogFile(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
	assert.Equal(t, LogFile("out", start, 200, "train"), filepath.Join("out", "2024-03-01 12-30-05_200_train.log"))
}

func TestParseEpoch(t *testing.T) {
	cases := []struct {
		path string
		want int
	}{
		{"", 0},
		{"epoch_0.zip", 0},
		{"epoch_1200.zip", 1200},
		{filepath.Join("some", "dir_x", "epoch_42.zip"), 42},
	}
	for _, tc := range cases {
		got, err := ParseEpoch(tc.path)
		assert.NilError(t, err, tc.path)
		assert.Equal(t, got, tc.want, tc.path)
	}

	for _, bad := range []string{"epoch_.zip", "epoch_x1.zip", "epoch.zip", "epoch_12"} {
		_, err := ParseEpoch(bad)
		assert.Assert(t, is.ErrorContains(err, "not an epoch file name"), bad)
	}
}

func TestFindLastEpochFile(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, FindLastEpochFile(dir), "")
	assert.Equal(t, FindLastEpochFile(filepath.Join(dir, "missing")), "")

	for _, name := range []string{"epoch_100.zip", "epoch_900.zip", "epoch_1000.zip", "epoch_abc.zip", "epoch_5000.txt", "other_9999.zip"} {
		touch(t, filepath.Join(dir, name))
	}
	assert.NilError(t, os.Mkdir(filepath.Join(dir, "epoch_7000.zip"), 0o755))

	// numeric, not lexical, ordering
	assert.Equal(t, FindLastEpochFile(dir), filepath.Join(dir, "epoch_1000.zip"))
}

func TestFindEpochFile(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, FindEpochFile(dir, -1), "")

	touch(t, filepath.Join(dir, "epoch_100.zip"))
	touch(t, filepath.Join(dir, "epoch_200.zip"))
	assert.Equal(t, FindEpochFile(dir, -1), filepath.Join(dir, "epoch_200.zip"))
	assert.Equal(t, FindEpochFile(dir, 100), filepath.Join(dir, "epoch_100.zip"))
	// explicit epochs are not checked for existence
	assert.Equal(t, FindEpochFile(dir, 300), filepath.Join(dir, "epoch_300.zip"))
}
