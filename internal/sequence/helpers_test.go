package sequence

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"passeq/internal/artifact"
)

var scenario = []string{
	"nlp  alpha   # first",
	"folder grp1  # group start",
	"nlp  beta    # inside",
	"end  grp1    # group end",
	"nlp  gamma   # after",
}

type fixture struct {
	root    string
	specDir string
	logDir  string
	namer   artifact.LogDir
}

func fixedClock() time.Time {
	return time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Local)
}

func newFixture(t *testing.T, lines ...string) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		root:    root,
		specDir: filepath.Join(root, "spec"),
		logDir:  filepath.Join(root, "input", "text.txt_log"),
	}
	f.namer = artifact.LogDir{Dir: f.logDir}
	require.NoError(t, os.MkdirAll(f.specDir, 0o755))
	require.NoError(t, os.MkdirAll(f.logDir, 0o755))
	f.writeSeq(t, lines...)
	return f
}

func (f fixture) writeSeq(t *testing.T, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.seqPath(), []byte(strings.Join(lines, "\n")), 0o644))
}

func (f fixture) seqPath() string {
	return filepath.Join(f.specDir, DefaultFileName)
}

func (f fixture) readSeq(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.seqPath())
	require.NoError(t, err)
	return string(data)
}

func (f fixture) writePass(t *testing.T, file, content string) string {
	t.Helper()
	path := filepath.Join(f.specDir, file)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f fixture) writeArtifact(t *testing.T, pass int, kind artifact.Kind, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.namer.Path(pass, kind), []byte(content), 0o644))
}

func (f fixture) readArtifact(t *testing.T, pass int, kind artifact.Kind) string {
	t.Helper()
	data, err := os.ReadFile(f.namer.Path(pass, kind))
	require.NoError(t, err)
	return string(data)
}

func (f fixture) load(t *testing.T) *Sequence {
	t.Helper()
	seq, err := Load(Options{SpecDir: f.specDir, Author: "Tester", Clock: fixedClock})
	require.NoError(t, err)
	return seq
}

// layout lists "type name" for every record in row order.
func layout(seq *Sequence) []string {
	out := make([]string, 0, seq.Count())
	for _, r := range seq.Records() {
		out = append(out, r.Type+" "+r.Name)
	}
	return out
}

// passNumbers lists the pass number of every record in row order.
func passNumbers(seq *Sequence) []int {
	out := make([]int, 0, seq.Count())
	for _, r := range seq.Records() {
		out = append(out, r.PassNumber)
	}
	return out
}

// requireConsistent checks rows, pass numbers and folder nesting.
func requireConsistent(t *testing.T, seq *Sequence) {
	t.Helper()
	open := ""
	pass := 0
	for i, r := range seq.Records() {
		require.Equal(t, i, r.Row, "row of %s", r.Name)
		if i > 0 {
			require.GreaterOrEqual(t, r.PassNumber, seq.ByRow(i-1).PassNumber, "numbering at %s", r.Name)
		}
		switch {
		case r.IsOpener():
			require.Empty(t, open, "folder %s opened inside %s", r.Name, open)
			open = r.Name
			require.False(t, r.InFolder)
		case open != "":
			if r.IsEnd(open) {
				open = ""
				require.False(t, r.InFolder)
			} else {
				require.True(t, r.InFolder, "%s should be in folder %s", r.Name, open)
			}
		case r.Counted():
			pass++
			require.Equal(t, pass, r.PassNumber, "pass number of %s", r.Name)
		}
	}
	require.Empty(t, open, "folder %s never closed", open)
}
