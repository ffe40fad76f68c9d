package predictor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch imports nedb file and reloads the model every time the file is written or replaced.
// The parent directory is watched, as nedb compaction replaces the file by rename.
// Blocks until the context is canceled.
func (p *Predictor) Watch(ctx context.Context, path string) error {
	return watch(ctx, path, func(r io.Reader) error {
		stats, err := p.Import(ctx, r)
		if err != nil {
			return err
		}
		log.Printf("[INFO] %s reloaded, imported: %d, deleted: %d, skipped: %d", path, stats.Imported, stats.Deleted, stats.Skipped)
		return nil
	})
}

// watch starts watching file for changes and calls onDataChange callback with the file content
func watch(ctx context.Context, path string, onDataChange func(io.Reader) error) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path of %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err = watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("failed to add %s to watcher: %w", path, err)
	}
	log.Printf("[INFO] watching %s for changes", path)

	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] stopping watcher for %s, %v", path, ctx.Err())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			data, e := readFile(absPath)
			if e != nil {
				log.Printf("[WARN] failed to read updated file %s: %v", path, e)
				continue
			}
			if e = onDataChange(data); e != nil {
				log.Printf("[WARN] failed to load updated file %s: %v", path, e)
			}
		case e, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[WARN] watcher error: %v", e)
		}
	}
}

func readFile(path string) (io.Reader, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is controlled by the app
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return bytes.NewReader(data), nil
}
