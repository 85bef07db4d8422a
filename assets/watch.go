package assets

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"haunted-house/core"
)

// Watch re-decodes textures whose files change on disk until ctx is done or
// the loader is closed. Reloaded textures come back through Poll with a bumped
// Revision so the renderer re-uploads them.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("texture watcher: %w", err)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		w.Close()
		return ErrClosed
	}
	if l.watcher != nil {
		l.mu.Unlock()
		w.Close()
		return fmt.Errorf("texture watcher already running")
	}
	l.watcher = w
	for path := range l.byPath {
		l.watchDirLocked(filepath.Dir(path))
	}
	// Added under the lock so Close cannot reach wg.Wait in between.
	l.wg.Add(1)
	l.mu.Unlock()

	go l.watchLoop(ctx, w)
	return nil
}

// watchDirLocked adds dir to the watch list once. Callers hold l.mu.
func (l *Loader) watchDirLocked(dir string) {
	if l.watched[dir] {
		return
	}
	if err := l.watcher.Add(dir); err != nil {
		core.Log.Warn("Cannot watch texture directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	l.watched[dir] = true
}

func (l *Loader) watchLoop(ctx context.Context, w *fsnotify.Watcher) {
	defer l.wg.Done()
	for {
		select {
		case e, ok := <-w.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				l.reload(e.Name)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			core.Log.Warn("Texture watcher error", zap.Error(err))

		case <-ctx.Done():
			l.stopWatch(w)
			return

		case <-l.ctx.Done():
			return
		}
	}
}

func (l *Loader) reload(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	for _, tex := range l.byPath[filepath.Clean(path)] {
		core.Log.Info("Reloading texture", zap.String("texture", tex.Name))
		l.enqueue(tex, path)
	}
}

func (l *Loader) stopWatch(w *fsnotify.Watcher) {
	l.mu.Lock()
	if l.watcher == w {
		l.watcher = nil
		l.watched = make(map[string]bool)
	}
	l.mu.Unlock()
	w.Close()
}
