package dashboard

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Invalidator drops cached loads for a changed file.
type Invalidator interface {
	Invalidate(path string) bool
}

// FileWatcher invalidates cached inputs when their files change. It watches
// the parent directories because editors and copy tools often replace a file
// with a rename instead of writing it in place.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	target  Invalidator
}

// NewFileWatcher watches the directories holding paths.
func NewFileWatcher(target Invalidator, paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		dir := filepath.Dir(p)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &FileWatcher{watcher: watcher, target: target}, nil
}

// Run handles events until ctx is cancelled or the watcher is closed.
func (fw *FileWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if fw.target.Invalidate(event.Name) {
				log.Info().Str("file", event.Name).Str("op", event.Op.String()).Msg("Input file changed")
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
