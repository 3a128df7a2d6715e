package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
	is "gotest.tools/assert/cmp"
)

func fixedClock(t *testing.T) {
	t.Helper()
	now = func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
}

func TestLineFormat(t *testing.T) {
	fixedClock(t)
	var buf bytes.Buffer
	SetConsole(&buf)
	defer SetConsole(os.Stderr)

	New("trainer").Infof("epoch %d took %dms", 3, 42)
	New("fetch").Errorf("boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), 2)
	assert.Equal(t, lines[0], "2024-03-01 12:30:00.000 trainer INFO - epoch 3 took 42ms")
	assert.Equal(t, lines[1], "2024-03-01 12:30:00.000 fetch ERROR - boom")
}

func TestAddFile(t *testing.T) {
	var buf bytes.Buffer
	SetConsole(&buf)
	defer SetConsole(os.Stderr)

	path := filepath.Join(t.TempDir(), "run.log")
	closer, err := AddFile(path)
	assert.NilError(t, err)

	log := New("app")
	log.Infof("into both")
	assert.NilError(t, closer.Close())
	log.Infof("console only")

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Assert(t, is.Contains(string(data), "into both"))
	assert.Assert(t, !strings.Contains(string(data), "console only"))
	assert.Assert(t, is.Contains(buf.String(), "console only"))
}
