package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passeq/internal/model"
)

func writeArtifact(t *testing.T, n Namer, pass int, kind Kind, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(n.Path(pass, kind), []byte(content), 0o644))
}

func readArtifact(t *testing.T, n Namer, pass int, kind Kind) string {
	t.Helper()
	data, err := os.ReadFile(n.Path(pass, kind))
	require.NoError(t, err)
	return string(data)
}

func record(pass int) *model.Record {
	r := model.NewRecord(model.TypeRule, "p", "# c")
	r.PassNumber = pass
	return r
}

func TestLogDirNaming(t *testing.T) {
	n := LogDir{Dir: "/a/log"}
	assert.Equal(t, filepath.Join("/a/log", "ana007.tree"), n.Path(7, KindTree))
	assert.Equal(t, filepath.Join("/a/log", "ana012.txxt"), n.Path(12, KindTrace))
	assert.Equal(t, filepath.Join("/a/log", "ana120.kbb"), n.Path(120, KindKB))
	assert.Equal(t, "kbb", KindKB.String())
}

func TestHasFired(t *testing.T) {
	dir := t.TempDir()
	fired := filepath.Join(dir, "fired.tree")
	quiet := filepath.Join(dir, "quiet.tree")
	require.NoError(t, os.WriteFile(fired, []byte("_ROOT\n  _x [fired]\n"), 0o644))
	require.NoError(t, os.WriteFile(quiet, []byte("_ROOT\n"), 0o644))

	ok, err := HasFired(fired)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasFired(quiet)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = HasFired(filepath.Join(dir, "missing.tree"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSwapBothExistRotates(t *testing.T) {
	n := LogDir{Dir: t.TempDir()}
	s := NewSynchronizer(n)
	writeArtifact(t, n, 1, KindTrace, "trace one")
	writeArtifact(t, n, 2, KindTrace, "trace two")
	writeArtifact(t, n, 1, KindKB, "kb one")
	writeArtifact(t, n, 2, KindKB, "kb two")

	require.NoError(t, s.Swap(record(1), record(2)))
	assert.Equal(t, "trace two", readArtifact(t, n, 1, KindTrace))
	assert.Equal(t, "trace one", readArtifact(t, n, 2, KindTrace))
	assert.Equal(t, "kb two", readArtifact(t, n, 1, KindKB))
	assert.Equal(t, "kb one", readArtifact(t, n, 2, KindKB))

	require.NoError(t, s.Swap(record(1), record(2)))
	assert.Equal(t, "trace one", readArtifact(t, n, 1, KindTrace))
	assert.Equal(t, "trace two", readArtifact(t, n, 2, KindTrace))

	entries, err := os.ReadDir(n.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4, "holding files must be removed")
}

func TestSwapOneSideMoves(t *testing.T) {
	n := LogDir{Dir: t.TempDir()}
	s := NewSynchronizer(n)
	writeArtifact(t, n, 3, KindTrace, "only three")

	require.NoError(t, s.Swap(record(3), record(4)))
	assert.False(t, model.Exists(n.Path(3, KindTrace)))
	assert.Equal(t, "only three", readArtifact(t, n, 4, KindTrace))

	require.NoError(t, s.Swap(record(3), record(4)))
	assert.Equal(t, "only three", readArtifact(t, n, 3, KindTrace))
	assert.False(t, model.Exists(n.Path(4, KindTrace)))
}

func TestSwapNeitherOrSameSlotIsNoop(t *testing.T) {
	n := LogDir{Dir: t.TempDir()}
	s := NewSynchronizer(n)
	require.NoError(t, s.Swap(record(5), record(6)))

	writeArtifact(t, n, 2, KindTrace, "shared")
	require.NoError(t, s.Swap(record(2), record(2)))
	assert.Equal(t, "shared", readArtifact(t, n, 2, KindTrace))

	entries, err := os.ReadDir(n.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSwapUsesHoldName(t *testing.T) {
	n := LogDir{Dir: t.TempDir()}
	var holds []string
	s := NewSynchronizer(n, WithHoldName(func(path string) string {
		h := path + ".hold"
		holds = append(holds, h)
		return h
	}))
	writeArtifact(t, n, 1, KindTrace, "a")
	writeArtifact(t, n, 2, KindTrace, "b")

	require.NoError(t, s.Swap(record(1), record(2)))
	require.Len(t, holds, 2)
	for _, h := range holds {
		assert.False(t, model.Exists(h))
	}
}

func TestRemapChainAndCycle(t *testing.T) {
	n := LogDir{Dir: t.TempDir()}
	s := NewSynchronizer(n)
	writeArtifact(t, n, 1, KindTrace, "one")
	writeArtifact(t, n, 2, KindTrace, "two")
	writeArtifact(t, n, 3, KindTrace, "three")

	require.NoError(t, s.Remap([]Shift{{From: 1, To: 2}, {From: 2, To: 3}, {From: 3, To: 1}}))
	assert.Equal(t, "three", readArtifact(t, n, 1, KindTrace))
	assert.Equal(t, "one", readArtifact(t, n, 2, KindTrace))
	assert.Equal(t, "two", readArtifact(t, n, 3, KindTrace))

	require.NoError(t, s.Remap([]Shift{{From: 3, To: 4}}))
	assert.False(t, model.Exists(n.Path(3, KindTrace)))
	assert.Equal(t, "two", readArtifact(t, n, 4, KindTrace))
}

func TestRemapClearsDestinationWithoutSource(t *testing.T) {
	n := LogDir{Dir: t.TempDir()}
	s := NewSynchronizer(n)
	writeArtifact(t, n, 3, KindTrace, "stale")

	require.NoError(t, s.Remap([]Shift{{From: 4, To: 3}}))
	assert.False(t, model.Exists(n.Path(3, KindTrace)))

	entries, err := os.ReadDir(n.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTouchCreatesMissingOnly(t *testing.T) {
	n := LogDir{Dir: filepath.Join(t.TempDir(), "log")}
	s := NewSynchronizer(n)

	require.NoError(t, s.Touch(1, KindTrace))
	assert.Equal(t, "", readArtifact(t, n, 1, KindTrace))

	writeArtifact(t, n, 2, KindTrace, "keep")
	require.NoError(t, s.Touch(2, KindTrace))
	assert.Equal(t, "keep", readArtifact(t, n, 2, KindTrace))
}
