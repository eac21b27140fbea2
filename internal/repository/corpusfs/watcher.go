package corpusfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of filesystem events into one reload.
const DefaultDebounce = 500 * time.Millisecond

// Watch blocks until ctx is done, calling onChange once per quiet period
// after record files under the root are created, written, renamed or removed.
// New subdirectories are watched as they appear.
func (l *Loader) Watch(ctx context.Context, debounce time.Duration, onChange func(context.Context)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("corpus watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := addTree(w, l.root); err != nil {
		return fmt.Errorf("corpus watcher: %w", err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if fi, statErr := os.Stat(ev.Name); statErr == nil && fi.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						l.logger.Warn("watch new dir failed", zap.String("path", ev.Name), zap.Error(err))
					}
				}
			}
			if !relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("corpus watcher error", zap.Error(err))
		case <-fire:
			fire = nil
			l.logger.Info("corpus change detected", zap.String("root", l.root))
			onChange(ctx)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	// Removed or renamed directories carry no extension.
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		return true
	}
	return isRecordFile(base) || filepath.Ext(base) == ""
}

func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return w.Add(path)
	})
}
