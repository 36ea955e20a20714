package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWatcher_DebouncedCallback(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "spores.png")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))

	fw, err := NewFileWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	var calls atomic.Int32
	changed := make(chan string, 4)
	require.NoError(t, fw.Watch(file, func(p string) {
		calls.Add(1)
		changed <- p
	}))
	fw.Start()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(file, []byte("burst"), 0o644))
	}

	select {
	case got := <-changed:
		want, _ := filepath.Abs(file)
		assert.Equal(t, want, got)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "burst should be debounced to one call")
}

func TestFileWatcher_FiredTimersReleased(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "spores.png")
	require.NoError(t, os.WriteFile(file, []byte("v1"), 0o644))
	abs, err := filepath.Abs(file)
	require.NoError(t, err)

	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	changed := make(chan string, 4)
	require.NoError(t, fw.Watch(file, func(p string) { changed <- p }))

	for round := 0; round < 3; round++ {
		fw.handleFileChange(abs)
		fw.handleFileChange(abs)
		select {
		case <-changed:
		case <-time.After(3 * time.Second):
			t.Fatalf("round %d: no change reported", round)
		}

		fw.mu.Lock()
		pending := len(fw.timers)
		fw.mu.Unlock()
		assert.Zero(t, pending, "round %d: fired timer still tracked", round)
	}
	assert.Empty(t, changed, "each burst reported once")
}

func TestFileWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.png")
	other := filepath.Join(dir, "b.png")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))

	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	var calls atomic.Int32
	require.NoError(t, fw.Watch(file, func(string) { calls.Add(1) }))
	fw.Start()

	require.NoError(t, os.WriteFile(other, []byte("b"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestFileWatcher_Unwatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")

	fw, err := NewFileWatcher(10*time.Millisecond, nil)
	require.NoError(t, err)
	defer fw.Close()

	require.NoError(t, fw.Watch(a, func(string) {}))
	require.NoError(t, fw.Watch(b, func(string) {}))
	assert.Len(t, fw.Watched(), 2)

	require.NoError(t, fw.Unwatch(a))
	assert.Len(t, fw.Watched(), 1)
	require.NoError(t, fw.Unwatch(a))
	require.NoError(t, fw.Unwatch(b))
	assert.Empty(t, fw.Watched())
}

func TestFileWatcher_CloseTwice(t *testing.T) {
	fw, err := NewFileWatcher(time.Millisecond, nil)
	require.NoError(t, err)
	fw.Start()
	assert.NoError(t, fw.Close())
	assert.NoError(t, fw.Close())
}
