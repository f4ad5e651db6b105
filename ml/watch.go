package ml

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ArtifactWatcher warns when artifact files change after startup. Loaded
// models are never swapped; a restart is needed to pick up new files.
type ArtifactWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool
	logger  *zap.Logger
	changed func(name string, op fsnotify.Op)
}

// NewArtifactWatcher watches the artifact directory. It fails when the
// directory does not exist.
func NewArtifactWatcher(a Artifacts, logger *zap.Logger) (*ArtifactWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(a.Dir); err != nil {
		w.Close()
		return nil, err
	}
	files := make(map[string]bool)
	for _, name := range a.Files() {
		files[name] = true
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArtifactWatcher{watcher: w, files: files, logger: logger}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *ArtifactWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if !w.files[name] || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Warn("model artifact changed on disk; restart to load it",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			if w.changed != nil {
				w.changed(name, event.Op)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("artifact watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and ends Run.
func (w *ArtifactWatcher) Close() error {
	return w.watcher.Close()
}
