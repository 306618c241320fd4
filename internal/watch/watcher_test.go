package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchFiles(t *testing.T) {
	match := MatchFiles([]string{"analyzer.seq"}, []string{".pat", ".nlp"})
	assert.True(t, match("/a/spec/analyzer.seq"))
	assert.True(t, match("/a/spec/lines.nlp"))
	assert.True(t, match("words.pat"))
	assert.False(t, match("/a/spec/.seq-123.tmp"))
	assert.False(t, match("notes.txt"))
}

func TestDebounceCoalescesEvents(t *testing.T) {
	w, err := New(t.TempDir(), WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	start := time.Now()
	w.handle(fsnotify.Event{Name: "x.nlp", Op: fsnotify.Create})
	w.handle(fsnotify.Event{Name: "x.nlp", Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: "y.nlp", Op: fsnotify.Chmod})

	w.flush(start)
	assert.Empty(t, w.Events())

	w.flush(time.Now().Add(time.Second))
	require.Len(t, w.Events(), 1)
	ev := <-w.Events()
	assert.Equal(t, "x.nlp", ev.Path)
	assert.Equal(t, "modify", ev.Op)
}

func TestFilterDropsOtherFiles(t *testing.T) {
	w, err := New(t.TempDir(), WithFilter(MatchFiles([]string{"analyzer.seq"}, nil)))
	require.NoError(t, err)
	defer w.Stop()

	w.handle(fsnotify.Event{Name: "other.txt", Op: fsnotify.Write})
	w.flush(time.Now().Add(time.Hour))
	assert.Empty(t, w.Events())
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir,
		WithDebounce(20*time.Millisecond),
		WithFilter(MatchFiles([]string{"analyzer.seq"}, nil)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	path := filepath.Join(dir, "analyzer.seq")
	require.NoError(t, os.WriteFile(path, []byte("nlp a # a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), nil, 0o644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, path, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for the sequence file")
	}
}

func TestStartMissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	defer w.Stop()
	assert.Error(t, w.Start(context.Background()))
}
