package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/mrdg/polysampler/audio"
)

// watchBank reloads the bank at path whenever it is written or replaced.
// The directory is watched since editors often save by renaming.
func watchBank(ctx context.Context, path string, reload func(*audio.Bank)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			bank, err := audio.LoadBank(path)
			if err != nil {
				log.Printf("watch: %v", err)
				continue
			}
			log.Printf("watch: reloaded %s", path)
			reload(bank)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
