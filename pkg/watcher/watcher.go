package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Watcher struct {
	watcher *fsnotify.Watcher

	directoryCount int

	Logger         *slog.Logger
	OnlySuffixes   []string
	IgnoreSuffixes []string

	ExcludeDirs  map[string]struct{}
	watchingDirs map[string]struct{}

	cooldownDuration time.Duration

	eventsCh chan Event
}

type Event fsnotify.Event

// GetEvents returns the channel of events that passed filtering and cooldown.
// It is closed once Watch returns.
func (f *Watcher) GetEvents() chan Event {
	return f.eventsCh
}

func (f *Watcher) ignoreEvent(event fsnotify.Event) (ignore bool, reason string) {
	// saving a file always produces a WRITE somewhere in its event chain
	if !event.Has(fsnotify.Write) {
		return true, fmt.Sprintf("event (%s) is not of type WRITE", event.Op)
	}

	// vim probes whether a directory is writable with a file named 4913
	if filepath.Base(event.Name) == "4913" {
		return true, "temporary file created by vim/neovim"
	}

	if strings.HasSuffix(event.Name, "~") {
		return true, "backup file ending in ~"
	}

	for k := range f.ExcludeDirs {
		if strings.Contains(event.Name, k) {
			return true, fmt.Sprintf("path is under excluded dir (%s)", k)
		}
	}

	for _, suffix := range f.IgnoreSuffixes {
		if strings.HasSuffix(event.Name, suffix) {
			return true, fmt.Sprintf("file has ignored suffix (%s)", suffix)
		}
	}

	if len(f.OnlySuffixes) == 0 {
		return false, "not ignored, and no suffix filter is set"
	}

	for _, suffix := range f.OnlySuffixes {
		if strings.HasSuffix(event.Name, suffix) {
			return false, fmt.Sprintf("file has watched suffix (%s)", suffix)
		}
	}

	return true, "suffix is not one of the watched suffixes"
}

// Watch forwards filtered events to GetEvents until ctx is done.
func (f *Watcher) Watch(ctx context.Context) {
	defer close(f.eventsCh)
	defer f.watcher.Close()

	var lastProcessed time.Time

	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}

			if event.Has(fsnotify.Create) {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() && !f.isExcluded(event.Name) {
					f.RecursiveAdd(event.Name)
				}
			}

			if ignore, reason := f.ignoreEvent(event); ignore {
				f.Logger.Debug("IGNORING", "event.name", event.Name, "reason", reason)
				continue
			}

			if time.Since(lastProcessed) < f.cooldownDuration {
				f.Logger.Debug(fmt.Sprintf("too many events under %s, ignoring...", f.cooldownDuration), "event.name", event.Name)
				continue
			}
			lastProcessed = time.Now()

			select {
			case f.eventsCh <- Event(event):
			case <-ctx.Done():
				return
			}

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.Logger.Error("watcher error", "err", err)

		case <-ctx.Done():
			f.Logger.Debug("watcher is closing", "reason", "context closed")
			return
		}
	}
}

func (f *Watcher) isExcluded(dir string) bool {
	for k := range f.ExcludeDirs {
		if strings.Contains(dir, k) {
			return true
		}
	}
	return false
}

func (f *Watcher) RecursiveAdd(dirs ...string) error {
	for _, dir := range dirs {
		if _, ok := f.watchingDirs[dir]; ok {
			continue
		}
		f.watchingDirs[dir] = struct{}{}

		fi, err := os.Lstat(dir)
		if err != nil {
			f.Logger.Warn("skipping unreadable path", "path", dir, "err", err)
			continue
		}

		if !fi.IsDir() {
			continue
		}

		if _, ok := f.ExcludeDirs[filepath.Base(dir)]; ok {
			f.Logger.Debug("EXCLUDED from watchlist", "dir", dir)
			continue
		}

		if err := f.addToWatchList(dir); err != nil {
			return err
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		subdirs := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				subdirs = append(subdirs, filepath.Join(dir, e.Name()))
			}
		}

		if err := f.RecursiveAdd(subdirs...); err != nil {
			return err
		}
	}

	return nil
}

func (f *Watcher) addToWatchList(dir string) error {
	if err := f.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	f.directoryCount++
	f.Logger.Debug("ADDED to watchlist", "dir", dir, "count", f.directoryCount)
	return nil
}

func (f *Watcher) Close() error {
	return f.watcher.Close()
}

type WatcherArgs struct {
	Logger *slog.Logger

	// WatchDirs entries prefixed with - are excluded instead
	WatchDirs []string
	// WatchExtensions entries prefixed with - are ignored instead
	WatchExtensions []string

	IgnoreList []string

	CooldownDuration *time.Duration
}

// DefaultIgnoreList is list of directories that are mostly ignored
var DefaultIgnoreList = []string{
	".git", ".svn", ".hg", // version control
	".idea", ".vscode", // IDEs
	".direnv",      // direnv nix
	"node_modules", // node
	".DS_Store",    // macOS
	".log",         // logs
}

var DefaultIgnoreExtensions = []string{
	".log",
	".swp",
}

const DefaultCooldown = 500 * time.Millisecond

func NewWatcher(args WatcherArgs) (*Watcher, error) {
	if args.Logger == nil {
		args.Logger = slog.Default()
	}

	cooldown := DefaultCooldown
	if args.CooldownDuration != nil {
		cooldown = *args.CooldownDuration
	}

	excludeDirs := map[string]struct{}{}
	for _, dir := range args.IgnoreList {
		excludeDirs[dir] = struct{}{}
	}

	var watchDirs []string
	for _, dir := range args.WatchDirs {
		if strings.HasPrefix(dir, "-") {
			excludeDirs[filepath.Clean(dir[1:])] = struct{}{}
			continue
		}
		watchDirs = append(watchDirs, dir)
	}

	var onlySuffixes []string
	ignoreSuffixes := append([]string{}, DefaultIgnoreExtensions...)
	for _, ext := range args.WatchExtensions {
		if strings.HasPrefix(ext, "-") {
			ignoreSuffixes = append(ignoreSuffixes, ext[1:])
			continue
		}
		onlySuffixes = append(onlySuffixes, ext)
	}

	if len(watchDirs) == 0 {
		dir, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		watchDirs = append(watchDirs, dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:          fsw,
		Logger:           args.Logger.With("component", "watcher"),
		ExcludeDirs:      excludeDirs,
		IgnoreSuffixes:   ignoreSuffixes,
		OnlySuffixes:     onlySuffixes,
		cooldownDuration: cooldown,
		watchingDirs:     make(map[string]struct{}),
		eventsCh:         make(chan Event),
	}

	if err := w.RecursiveAdd(watchDirs...); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}
