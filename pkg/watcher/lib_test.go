package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nxtcoder17/isserverup/pkg/executor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
}

// recorder counts passes, and signals each one on ch
type recorder struct {
	mu     sync.Mutex
	passes int
	ch     chan struct{}
}

func (r *recorder) run(context.Context) int {
	r.mu.Lock()
	r.passes++
	r.mu.Unlock()
	r.ch <- struct{}{}
	return 0
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passes
}

func Test_Watcher_ignoreEvent(t *testing.T) {
	w := &Watcher{
		ExcludeDirs:    map[string]struct{}{"node_modules": {}},
		IgnoreSuffixes: []string{".log"},
		OnlySuffixes:   []string{".html", ".conf"},
	}

	tests := []struct {
		name   string
		event  fsnotify.Event
		ignore bool
	}{
		{name: "1. write on watched suffix", event: fsnotify.Event{Name: "site/index.html", Op: fsnotify.Write}},
		{name: "2. create only", event: fsnotify.Event{Name: "site/index.html", Op: fsnotify.Create}, ignore: true},
		{name: "3. vim probe file", event: fsnotify.Event{Name: "site/4913", Op: fsnotify.Write}, ignore: true},
		{name: "4. backup file", event: fsnotify.Event{Name: "site/index.html~", Op: fsnotify.Write}, ignore: true},
		{name: "5. excluded dir", event: fsnotify.Event{Name: "node_modules/x/index.html", Op: fsnotify.Write}, ignore: true},
		{name: "6. ignored suffix", event: fsnotify.Event{Name: "logs/access.log", Op: fsnotify.Write}, ignore: true},
		{name: "7. not a watched suffix", event: fsnotify.Event{Name: "site/app.js", Op: fsnotify.Write}, ignore: true},
		{name: "8. write with chmod", event: fsnotify.Event{Name: "nginx.conf", Op: fsnotify.Write | fsnotify.Chmod}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ignore, reason := w.ignoreEvent(tt.event)
			assert.Equal(t, tt.ignore, ignore, reason)
		})
	}
}

func Test_NewWatcher_Args(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "public"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "cache"), 0o755))

	w, err := NewWatcher(WatcherArgs{
		Logger:          testLogger(),
		WatchDirs:       []string{dir, "-cache"},
		WatchExtensions: []string{".html", "-.tmp"},
		IgnoreList:      DefaultIgnoreList,
	})
	require.NoError(t, err)
	defer w.Close()

	assert.Contains(t, w.ExcludeDirs, "cache")
	assert.Contains(t, w.ExcludeDirs, ".git")
	assert.Equal(t, []string{".html"}, w.OnlySuffixes)
	assert.Contains(t, w.IgnoreSuffixes, ".tmp")
	assert.Contains(t, w.IgnoreSuffixes, ".log")

	assert.Equal(t, 2, w.directoryCount, "root and public are watched, cache is excluded")
}

func Test_Watcher_WatchAndExecute(t *testing.T) {
	dir := t.TempDir()
	cooldown := 5 * time.Millisecond

	w, err := NewWatcher(WatcherArgs{
		Logger:           testLogger(),
		WatchDirs:        []string{dir},
		CooldownDuration: &cooldown,
	})
	require.NoError(t, err)

	ctx, cf := context.WithCancel(context.TODO())
	defer cf()

	rec := &recorder{ch: make(chan struct{}, 8)}
	ex := executor.NewCheckExecutor(ctx, executor.CheckExecutorArgs{
		Logger: testLogger(),
		Run:    rec.run,
	})

	done := make(chan error)
	go func() {
		done <- w.WatchAndExecute(ctx, []executor.Executor{ex})
	}()

	waitPass := func() {
		t.Helper()
		select {
		case <-rec.ch:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a pass")
		}
	}

	// initial pass
	waitPass()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("v2"), 0o644))
	waitPass()

	cf()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WatchAndExecute did not return after cancel")
	}

	assert.GreaterOrEqual(t, rec.count(), 2)
}
