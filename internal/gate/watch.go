package gate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches bursts of file events into one rerun.
const DefaultDebounce = 250 * time.Millisecond

// Watch runs fn once, then again after every debounced batch of changes
// below dirs, until ctx is cancelled. Directories that do not exist are
// skipped. Errors from fn are logged and do not stop the loop.
func Watch(ctx context.Context, env *Env, dirs []string, debounce time.Duration, fn func(context.Context) error) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("gate: create watcher: %w", err)
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dirs {
		n, err := addTree(watcher, dir)
		if err != nil {
			return err
		}
		watched += n
	}
	if watched == 0 {
		return fmt.Errorf("gate: nothing to watch")
	}
	env.Log.Printf("watching %d directories", watched)

	run := func() {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			env.Log.Warnf("run failed: %v", err)
		}
	}
	run()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			env.Log.Debugf("change: %s %s", event.Op, event.Name)
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if _, err := addTree(watcher, event.Name); err != nil {
						env.Log.Warnf("watch %s: %v", event.Name, err)
					}
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			env.Log.Warnf("watcher error: %v", err)
		case <-timerC:
			timer, timerC = nil, nil
			run()
		}
	}
}

// WatchDirs lists the directories holding the configured inputs, sorted and
// de-duplicated.
func (e *Env) WatchDirs() []string {
	set := map[string]struct{}{}
	add := func(dir string) {
		if dir != "" {
			set[filepath.Clean(dir)] = struct{}{}
		}
	}
	for _, pattern := range e.Config.IssuePatterns() {
		prefix := staticPrefix(pattern)
		if !filepath.IsAbs(prefix) {
			prefix = filepath.Join(e.Config.Root, prefix)
		}
		add(prefix)
	}
	add(filepath.Dir(e.Config.RegistryPath()))
	add(filepath.Dir(e.Config.ObligationsPath()))
	for _, dir := range e.Config.TheoremDirs() {
		add(filepath.Join(e.Config.Root, dir))
	}
	out := make([]string, 0, len(set))
	for dir := range set {
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// staticPrefix returns the leading path segments of a glob that contain no
// wildcard.
func staticPrefix(pattern string) string {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	for i, segment := range segments {
		if strings.ContainsAny(segment, "*?[{") {
			return filepath.FromSlash(strings.Join(segments[:i], "/"))
		}
	}
	return filepath.Dir(filepath.FromSlash(pattern))
}

func addTree(watcher *fsnotify.Watcher, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("gate: watch %s: %w", path, err)
		}
		count++
		return nil
	})
	return count, err
}
