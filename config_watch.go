package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the config at path whenever it is written or replaced and
// sends each config whose mapping is valid on configs.
// The directory is watched rather than the file, since editors often save
// by renaming a temp file over the original.
func Watch(path string, configs chan<- *Config, errors chan<- error, done <-chan struct{}) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create watcher: %w", err)
	}
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		watcher.Close()
		return fmt.Errorf("can't watch %s: %w", path, err)
	}
	go func() {
		// ignore close error
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				// a rename away is followed by a create of the new file
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if _, err := os.Stat(path); err != nil {
					continue
				}
				c, err := ReadConfig(path)
				if err == nil {
					// audio settings are fixed at startup, only the
					// mapping has to be valid
					_, err = c.Mapping()
				}
				if err != nil {
					select {
					case errors <- fmt.Errorf("reload %s: %w", path, err):
					case <-done:
						return
					}
					continue
				}
				select {
				case configs <- c:
				case <-done:
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case errors <- err:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()
	return nil
}
