// Package watch reloads site content when files under the content directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/folio-blog/folio/pkg/utils"
)

// ReloadFunc rebuilds the content library. A failing reload must leave the
// previous library in place.
type ReloadFunc func() error

// Watcher watches a directory tree and calls a reload function once a burst of
// changes has settled.
type Watcher struct {
	root     string
	debounce time.Duration
	reload   ReloadFunc
	log      *logrus.Entry
	fsw      *fsnotify.Watcher
}

// New starts watching root and every directory below it. Directories created
// later are added as they appear.
func New(root string, debounce time.Duration, reload ReloadFunc, log *logrus.Entry) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: creating file watcher: %w", utils.ErrFilesystem, err)
	}
	w := &Watcher{
		root:     root,
		debounce: debounce,
		reload:   reload,
		log:      log,
		fsw:      fsw,
	}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree registers dir and its subdirectories, skipping hidden ones.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walking %s: %w", utils.ErrFilesystem, path, err)
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("%w: watching %s: %w", utils.ErrFilesystem, path, err)
		}
		w.log.Debugf("Watching %s", path)
		return nil
	})
}

// ignored reports editor swap files, backups and dotfiles.
func ignored(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp")
}

// Run processes events until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	w.log.Infof("Watching %s for content changes (debounce %v)", w.root, w.debounce)

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := 0

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.log.Warnf("Could not watch new directory: %v", err)
					}
				}
			}
			pending++
			debounce.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Errorf("File watcher error: %v", err)

		case <-debounce.C:
			w.log.Infof("Detected %d content change(s), reloading", pending)
			pending = 0
			start := time.Now()
			if err := w.reload(); err != nil {
				w.log.Errorf("Content reload failed, keeping previous content: %v", err)
				continue
			}
			w.log.Infof("Content reloaded in %v", time.Since(start).Round(time.Millisecond))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if ignored(event.Name) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
