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
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherTriggersReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	var reloads atomic.Int32
	w, err := NewWatcher(path, func() error {
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	w.Start()

	if err := os.WriteFile(path, []byte(`[{"table_name":"t","columns":[]}]`), 0o600); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	// Wait past the debounce window for the callback
	deadline := time.After(2 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("reload callback was not invoked")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.json")
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	var reloads atomic.Int32
	w, err := NewWatcher(path, func() error {
		reloads.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	defer w.Stop()

	w.Start()

	if err := os.WriteFile(other, []byte("{}"), 0o600); err != nil {
		t.Fatalf("failed to write other file: %v", err)
	}

	time.Sleep(300 * time.Millisecond)
	if reloads.Load() != 0 {
		t.Errorf("reload triggered %d times for an unrelated file", reloads.Load())
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	if _, err := NewWatcher("/nonexistent/dir/schema.json", func() error { return nil }); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
