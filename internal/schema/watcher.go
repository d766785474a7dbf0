/*-------------------------------------------------------------------------
 *
 * pgEdge Text-to-SQL Agent
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package schema

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pgedge-text2sql/internal/logging"
)

// Watcher watches a schema description file and triggers a re-ingestion
// callback when it changes.
type Watcher struct {
	watcher  *fsnotify.Watcher
	filePath string
	reloadFn func() error
	done     chan struct{}
}

// NewWatcher creates a watcher for the given schema file. reloadFn is
// invoked after the file settles; its error is logged, not propagated, so a
// bad intermediate save does not kill the watch loop.
func NewWatcher(filePath string, reloadFn func() error) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		watcher:  watcher,
		filePath: filePath,
		reloadFn: reloadFn,
		done:     make(chan struct{}),
	}

	// Watch the directory containing the file (not the file itself)
	// because editors often delete and recreate files on save
	dir := filepath.Dir(filePath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	return w, nil
}

// Start begins watching for file changes
func (w *Watcher) Start() {
	go w.watch()
}

// Stop stops watching for file changes
func (w *Watcher) Stop() {
	close(w.done)
	w.watcher.Close()
}

// watch monitors file events and triggers re-ingestion
func (w *Watcher) watch() {
	// Debounce so a rapid save sequence ingests once
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Name != w.filePath {
				continue
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					if err := w.reloadFn(); err != nil {
						logging.Error("schema re-ingestion failed", "file", w.filePath, "error", err.Error())
					} else {
						logging.Info("schema re-ingested", "file", w.filePath)
					}
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("schema watcher error", "file", w.filePath, "error", err.Error())

		case <-w.done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return
		}
	}
}
