package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestWatcher_RebuildsAfterChange(t *testing.T) {
	dir := t.TempDir()

	rebuilt := make(chan struct{}, 8)
	w := New(dir, func(ctx context.Context) error {
		rebuilt <- struct{}{}
		return nil
	}, nil, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeDoc(t, dir, "apollo.txt", "the eagle has landed")

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild was not triggered")
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()

	var count atomic.Int32
	w := New(dir, func(ctx context.Context) error {
		count.Add(1)
		return nil
	}, nil, WithDebounce(200*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// Burst of writes well inside the debounce window.
	for i := 0; i < 5; i++ {
		writeDoc(t, dir, "burst.txt", "revision")
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return count.Load() >= 1
	}, 5*time.Second, 20*time.Millisecond)

	// Let any stray timers fire, then confirm the burst collapsed.
	time.Sleep(400 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), int32(2))
}

func TestWatcher_IgnoresIrrelevantFiles(t *testing.T) {
	dir := t.TempDir()

	var count atomic.Int32
	w := New(dir, func(ctx context.Context) error {
		count.Add(1)
		return nil
	}, nil, WithDebounce(50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeDoc(t, dir, ".hidden.txt", "skip")
	writeDoc(t, dir, "index.bin.tmp", "skip")
	writeDoc(t, dir, "notes.md", "skip")

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())
}

func TestWatcher_StartMissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope"), func(ctx context.Context) error {
		return nil
	}, nil)

	err := w.Start(context.Background())
	assert.Error(t, err)
}

func TestWatcher_StopCancelsPendingRebuild(t *testing.T) {
	dir := t.TempDir()

	var count atomic.Int32
	w := New(dir, func(ctx context.Context) error {
		count.Add(1)
		return nil
	}, nil, WithDebounce(500*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writeDoc(t, dir, "doomed.txt", "never indexed")
	time.Sleep(100 * time.Millisecond)
	w.Stop()

	time.Sleep(700 * time.Millisecond)
	assert.Equal(t, int32(0), count.Load())
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"txt write", fsnotify.Event{Name: "/data/a.txt", Op: fsnotify.Write}, true},
		{"txt create", fsnotify.Event{Name: "/data/b.txt", Op: fsnotify.Create}, true},
		{"txt remove", fsnotify.Event{Name: "/data/c.txt", Op: fsnotify.Remove}, true},
		{"uppercase ext", fsnotify.Event{Name: "/data/d.TXT", Op: fsnotify.Write}, true},
		{"chmod only", fsnotify.Event{Name: "/data/e.txt", Op: fsnotify.Chmod}, false},
		{"hidden file", fsnotify.Event{Name: "/data/.swap.txt", Op: fsnotify.Write}, false},
		{"temp file", fsnotify.Event{Name: "/data/f.tmp", Op: fsnotify.Write}, false},
		{"wrong extension", fsnotify.Event{Name: "/data/g.md", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.ev))
		})
	}
}
