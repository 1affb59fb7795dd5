package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"

	"github.com/fedro86/almost-a-cms/internal/generator"
	"github.com/fedro86/almost-a-cms/internal/pkg/fileutil"
)

type countingGenerator struct {
	calls atomic.Int32
}

func (c *countingGenerator) Generate(ctx context.Context) (*generator.Result, error) {
	c.calls.Add(1)
	return &generator.Result{}, nil
}

type recordingInvalidator struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingInvalidator) Invalidate(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *recordingInvalidator) seen(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, dir string, opts ...Option) *countingGenerator {
	t.Helper()
	gen := &countingGenerator{}
	w := New(dir, gen, append([]Option{WithDelay(20 * time.Millisecond)}, opts...)...)
	require.NoError(t, w.Start())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return gen
}

func TestWatcherRegeneratesOnDocumentChange(t *testing.T) {
	dir := t.TempDir()
	inv := &recordingInvalidator{}
	gen := startWatcher(t, dir, WithInvalidator(inv))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hero.json"), []byte(`{}`), 0o644))
	require.Eventually(t, func() bool { return gen.calls.Load() >= 1 }, 3*time.Second, 10*time.Millisecond)
	require.True(t, inv.seen("hero"))
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	gen := startWatcher(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileutil.TempFilePrefix+"123"), []byte("x"), 0o644))
	require.Never(t, func() bool { return gen.calls.Load() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}

func TestRunWithoutStart(t *testing.T) {
	w := New(t.TempDir(), &countingGenerator{})
	require.Error(t, w.Run(context.Background()))
}

func TestDocumentName(t *testing.T) {
	name, ok := documentName(fsnotify.Event{Name: "/data/report.json", Op: fsnotify.Write})
	require.True(t, ok)
	require.Equal(t, "report", name)

	_, ok = documentName(fsnotify.Event{Name: "/data/report.json", Op: fsnotify.Chmod})
	require.False(t, ok)
	_, ok = documentName(fsnotify.Event{Name: "/data/bad name.json", Op: fsnotify.Create})
	require.False(t, ok)
	_, ok = documentName(fsnotify.Event{Name: "/data/" + fileutil.TempFilePrefix + "1", Op: fsnotify.Create})
	require.False(t, ok)
}
