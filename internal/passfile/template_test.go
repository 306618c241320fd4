package passfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, time.March, 5, 9, 7, 3, 0, time.Local)
}

func TestTimestampFormat(t *testing.T) {
	assert.Equal(t, "2024-3-5 9:07:03", Timestamp(fixedClock()))
	assert.Equal(t, "2023-12-31 23:59:59", Timestamp(time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local)))
}

func TestContentHeader(t *testing.T) {
	g := &Generator{Author: "Ada", Now: fixedClock}
	got := g.Content("lines", Rules)

	lines := strings.Split(got, "\n")
	require.GreaterOrEqual(t, len(lines), 7)
	assert.Equal(t, strings.TrimSuffix(rule, "\n"), lines[0])
	assert.Equal(t, "# FILE: lines", lines[1])
	assert.Equal(t, "# SUBJ: comment", lines[2])
	assert.Equal(t, "# AUTH: Ada", lines[3])
	assert.Equal(t, "# CREATED: 2024-3-5 9:07:03", lines[4])
	assert.Equal(t, "# MODIFIED:", lines[5])
	assert.Equal(t, strings.TrimSuffix(rule, "\n"), lines[6])
}

func TestContentDefaultsAuthor(t *testing.T) {
	g := &Generator{Now: fixedClock}
	assert.Contains(t, g.Content("x", Rules), "# AUTH: "+DefaultAuthor+"\n")
}

func TestContentSkeletons(t *testing.T) {
	g := &Generator{Author: "Ada", Now: fixedClock}

	rules := g.Content("p", Rules)
	assert.Contains(t, rules, "@NODES _ROOT\n\n@RULES\n_xNIL <-\n\t_xNIL\t### (1)\n\t@@\n")
	assert.NotContains(t, rules, "@CODE")

	code := g.Content("p", Code)
	assert.Contains(t, code, "@CODE\n\n")
	assert.Contains(t, code, `G("kb") = getconcept(findroot(),"kb");`)
	assert.Contains(t, code, `SaveKB("mykb.kbb",G("kb"),2);`)
	assert.True(t, strings.HasSuffix(code, "\n@@CODE"))

	decl := g.Content("p", Decl)
	assert.Contains(t, decl, "@DECL\n\nMyFunction(L(\"var\")) {\n\n}\n")
	assert.True(t, strings.HasSuffix(decl, "\n@@DECL"))
}

func TestCreateWritesFile(t *testing.T) {
	dir := t.TempDir()
	g := &Generator{Author: "Ada", Now: fixedClock}

	path, err := g.Create(dir, "newpass", Code)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "newpass.nlp"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.Content("newpass", Code), string(data))
}

func TestCreateKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	g := &Generator{Author: "Ada", Now: fixedClock}
	existing := filepath.Join(dir, "taken.nlp")
	require.NoError(t, os.WriteFile(existing, []byte("hand written"), 0o644))

	_, err := g.Create(dir, "taken", Rules)
	require.ErrorIs(t, err, fs.ErrExist)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "hand written", string(data))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"": Rules, "RULES": Rules, "code": Code, " decl ": Decl} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("bogus")
	assert.Error(t, err)
}
