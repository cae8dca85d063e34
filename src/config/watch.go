package config

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 500 * time.Millisecond

// Watch reloads the configuration whenever cfg.EnvPath changes and hands the
// new value to onChange. It blocks until ctx is done. Without an env file
// there is nothing to watch and it returns at once.
func Watch(ctx context.Context, cfg *Config, opts LoadOptions, onChange func(*Config)) error {
	if cfg.EnvPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory and filter.
	dir := filepath.Dir(cfg.EnvPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("config watcher: watch %s: %w", dir, err)
	}
	target := filepath.Clean(cfg.EnvPath)
	opts.EnvPathOverride = cfg.EnvPath
	log.Printf("config: watching %s", target)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("config: watcher error: %v", err)

		case <-debounce:
			debounce = nil
			next, err := Reload(opts)
			if err != nil {
				log.Printf("config: reload failed: %v", err)
				continue
			}
			log.Printf("config: reloaded %s", target)
			onChange(next)
		}
	}
}
