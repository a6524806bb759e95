package workspace

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a batch of changes is delivered.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc receives the slash-separated relative paths touched since the
// last call. Returning an error stops the watcher.
type ChangeFunc func(ctx context.Context, changed []string) error

// Watcher reports batched file changes under a workspace root.
type Watcher struct {
	root     *Root
	debounce time.Duration
	onChange ChangeFunc
	fsw      *fsnotify.Watcher
}

// NewWatcher subscribes to every non-skipped directory under root.
func NewWatcher(root string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("workspace: change callback is required")
	}
	r, err := OpenRoot(root)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{root: r, debounce: debounce, onChange: onChange, fsw: fsw}
	if err := w.addRecursive(r.abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Directories can vanish between the event and the walk.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root.abs && SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

// Run blocks until ctx is done, the callback fails, or the underlying
// watcher closes. It always releases the fsnotify handle.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	pending := map[string]struct{}{}
	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			rel, err := w.root.Rel(ev.Name)
			if err != nil || w.ignored(rel) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(ev.Name); err != nil {
						log.Printf("Workspace: watch %s: %v", rel, err)
					}
					continue
				}
			}
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]struct{}{}
			if err := w.onChange(ctx, changed); err != nil {
				return err
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("Workspace: watcher error: %v", err)
		}
	}
}

// ignored reports whether any directory on the path is a skipped one.
func (w *Watcher) ignored(rel string) bool {
	if rel == "." {
		return true
	}
	for dir := filepath.Dir(filepath.FromSlash(rel)); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if SkipDir(filepath.Base(dir)) {
			return true
		}
	}
	return SkipDir(filepath.Base(rel))
}

// Watch runs fn after every burst of changes under root until ctx is done.
func Watch(ctx context.Context, root string, debounce time.Duration, fn ChangeFunc) error {
	w, err := NewWatcher(root, debounce, fn)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
