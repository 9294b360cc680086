package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exp1.txt")
	other := filepath.Join(dir, "exp2.txt")
	require.NoError(t, os.WriteFile(path, []byte("Frame 1 at 0.1 seconds\n"), 0644))

	fw, err := NewFileWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	defer fw.Close()

	// Writes to siblings are ignored.
	require.NoError(t, os.WriteFile(other, []byte("x\n"), 0644))
	select {
	case ev := <-fw.Events():
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(200 * time.Millisecond):
	}

	// A burst of writes settles into one event.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("Frame 2 at 0.2 seconds\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	select {
	case ev := <-fw.Events():
		assert.Equal(t, abs, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	select {
	case ev := <-fw.Events():
		t.Fatalf("burst produced a second event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileWatcherClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exp1.txt")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	fw, err := NewFileWatcher(path, DefaultSettle)
	require.NoError(t, err)
	require.NoError(t, fw.Close())
	require.NoError(t, fw.Close())

	select {
	case _, ok := <-fw.Events():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestNewFileWatcherMissingDirectory(t *testing.T) {
	_, err := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "exp1.txt"), DefaultSettle)
	assert.Error(t, err)
}
