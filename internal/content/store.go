package content

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Store serves the current content and swaps it when the source file changes.
type Store struct {
	path string
	cur  atomic.Pointer[Content]
}

// NewStore loads content from path, or the built-in default when path is empty.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	var (
		c   *Content
		err error
	)
	if path == "" {
		c, err = Default()
	} else {
		c, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	s.cur.Store(c)
	return s, nil
}

// Get returns the current content.
func (s *Store) Get() *Content { return s.cur.Load() }

// Reload re-reads the file. On failure the previous content stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	c, err := LoadFile(s.path)
	if err != nil {
		return err
	}
	s.cur.Store(c)
	return nil
}

// Watch reloads the content whenever its file is written or replaced, until ctx ends.
// Editors often replace files by rename, so the parent directory is watched.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		<-ctx.Done()
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		return err
	}
	target := filepath.Clean(s.path)
	slog.Info("Watching content file", "path", target)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := s.Reload(); err != nil {
				slog.Warn("Keeping previous content; reload failed", "path", target, "error", err)
				continue
			}
			slog.Info("Reloaded content", "path", target)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Content watcher error", "error", err)
		}
	}
}
