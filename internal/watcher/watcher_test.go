package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaring/codeatlas-mcp/pkg/types"
)

// countingProcessor records dispatched paths
type countingProcessor struct {
	mu        sync.Mutex
	processed map[string]int
	removed   map[string]int
	tracked   []string
}

func newCountingProcessor() *countingProcessor {
	return &countingProcessor{
		processed: make(map[string]int),
		removed:   make(map[string]int),
	}
}

func (p *countingProcessor) track(paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked = append(p.tracked, paths...)
}

func (p *countingProcessor) TrackedFiles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.tracked))
	copy(out, p.tracked)
	return out
}

func (p *countingProcessor) ProcessFile(_ context.Context, path string) (*types.FileAnalysis, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed[path]++
	return &types.FileAnalysis{FilePath: path}, nil
}

func (p *countingProcessor) RemoveFile(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removed[path]++
	return nil
}

func (p *countingProcessor) processedCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processed[path]
}

func (p *countingProcessor) removedCount(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removed[path]
}

func startWatcher(t *testing.T, root string, proc Processor) {
	t.Helper()
	w, err := New(proc, Config{
		Debounce:      150 * time.Millisecond,
		SweepInterval: 25 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, root))
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})
}

func TestDebounceDispatchesOnce(t *testing.T) {
	dir := t.TempDir()
	proc := newCountingProcessor()
	startWatcher(t, dir, proc)

	// a burst of writes within the debounce window
	path := filepath.Join(dir, "app.py")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return proc.processedCount(path) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// once quiescent, no further dispatches arrive
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, proc.processedCount(path))
}

func TestDeleteDispatchesImmediately(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	proc := newCountingProcessor()
	startWatcher(t, dir, proc)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return proc.removedCount(path) == 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDeleteCancelsPendingChange(t *testing.T) {
	dir := t.TempDir()
	proc := newCountingProcessor()
	startWatcher(t, dir, proc)

	path := filepath.Join(dir, "shortlived.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))
	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		return proc.removedCount(path) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// the pending change was dropped with the delete
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, proc.processedCount(path))
}

func TestDirectoryDeleteRemovesTrackedFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))

	inside := filepath.Join(sub, "mod.py")
	other := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(inside, []byte("x = 1\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("y = 2\n"), 0o644))

	// stale has an index entry but no file, so only the directory-delete
	// fan-out can remove it
	stale := filepath.Join(sub, "stale.py")
	proc := newCountingProcessor()
	proc.track(inside, stale, other)
	startWatcher(t, dir, proc)

	require.NoError(t, os.RemoveAll(sub))

	require.Eventually(t, func() bool {
		return proc.removedCount(stale) >= 1 && proc.removedCount(inside) >= 1
	}, 2*time.Second, 20*time.Millisecond)

	// files outside the deleted directory stay indexed
	assert.Equal(t, 0, proc.removedCount(other))
}

func TestNewDirectoriesAreWatched(t *testing.T) {
	dir := t.TempDir()
	proc := newCountingProcessor()
	startWatcher(t, dir, proc)

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// give the watcher a beat to pick up the new directory
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	require.Eventually(t, func() bool {
		return proc.processedCount(path) >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestIgnoredDirectoriesAreNotWatched(t *testing.T) {
	dir := t.TempDir()
	ignored := filepath.Join(dir, "node_modules")
	require.NoError(t, os.Mkdir(ignored, 0o755))

	proc := newCountingProcessor()
	w, err := New(proc, Config{
		Debounce:      150 * time.Millisecond,
		SweepInterval: 25 * time.Millisecond,
		IgnoreDir:     func(name string) bool { return name == "node_modules" },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, dir))
	t.Cleanup(func() {
		cancel()
		_ = w.Close()
	})

	path := filepath.Join(ignored, "dep.js")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, 0, proc.processedCount(path))
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "change", EventChange.String())
	assert.Equal(t, "delete", EventDelete.String())
}
