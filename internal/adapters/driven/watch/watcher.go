// Package watch invalidates cached archive state when archive files in
// the archive directory change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mobilemutex/zim-mcp/internal/core/domain"
	"github.com/mobilemutex/zim-mcp/internal/logger"
)

// Invalidator drops everything cached for one archive file.
type Invalidator interface {
	Invalidate(name string)
}

// ChangeType classifies a file system change.
type ChangeType string

// Change types.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeRemoved ChangeType = "removed"
)

// Change is one relevant change of an archive file.
type Change struct {
	Name string
	Type ChangeType
}

// Watcher watches the top level of an archive directory.
type Watcher struct {
	dir    string
	target Invalidator

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// New creates a watcher for dir that reports changes to target.
func New(dir string, target Invalidator) (*Watcher, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: invalidator is required", domain.ErrInvalidInput)
	}
	return &Watcher{dir: dir, target: target}, nil
}

// Start begins watching. Events are processed until ctx is cancelled or
// Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watcher != nil {
		return errors.New("watcher already started")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := fw.Add(w.dir); err != nil {
		fw.Close()
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.loop(ctx, fw, w.done)

	logger.Debug("Watching %s for archive changes", w.dir)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			fw.Close()
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if change, ok := w.handleEvent(event); ok {
				logger.Info("Archive %s %s", change.Name, change.Type)
				w.target.Invalidate(change.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Warn("Watching %s: %v", w.dir, err)
		}
	}
}

// handleEvent maps an fsnotify event to an archive change. Hidden files,
// directories, non-archive files and attribute changes are ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) (Change, bool) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), domain.ArchiveExtension) {
		return Change{}, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return Change{Name: name, Type: ChangeRemoved}, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return Change{}, false
		}
		if event.Has(fsnotify.Create) {
			return Change{Name: name, Type: ChangeCreated}, true
		}
		return Change{Name: name, Type: ChangeUpdated}, true
	default:
		return Change{}, false
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher = nil
	w.mu.Unlock()

	if fw == nil {
		return nil
	}
	err := fw.Close()
	<-done
	return err
}
