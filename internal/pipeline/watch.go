package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/alevsk/sass-inject/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// RunFunc receives the outcome of every run started by Watch
type RunFunc func(report *Report, err error)

// Watch runs the pipeline once and again after every burst of filesystem
// changes below the source directory. Changes are coalesced for debounce.
// Watch returns nil when ctx is cancelled.
func Watch(ctx context.Context, set Settings, debounce time.Duration, onRun RunFunc) error {
	src, err := NewDirSource(set.Source, set.Options)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, src); err != nil {
		return err
	}
	logger.Info().Str("source", src.Root()).Msg("watching for changes")

	onRun(Run(ctx, set))

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if src.excludedPath(event.Name) {
				continue
			}
			logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("change detected")
			if event.Has(fsnotify.Create) {
				// new directories need their own watch
				if err := addTree(watcher, &DirSource{root: event.Name, opts: src.opts}); err != nil {
					logger.Debug().Err(err).Str("path", event.Name).Msg("not watching path")
				}
			}
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			if ctx.Err() != nil {
				return nil
			}
			onRun(Run(ctx, set))
		}
	}
}

// addTree registers every directory below the source root
func addTree(watcher *fsnotify.Watcher, src *DirSource) error {
	return filepath.WalkDir(src.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if src.excluded(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// excludedPath reports whether path lies in an excluded directory
func (s *DirSource) excludedPath(path string) bool {
	for _, dir := range s.opts.Exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if path == abs || strings.HasPrefix(path, abs+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
