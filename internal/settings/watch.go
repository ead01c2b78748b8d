package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/danmuck/buildtree/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads settings when the file changes on disk.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger
}

func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		path:     resolved,
		debounce: debounce,
		logger:   logging.WithComponent("settings"),
	}, nil
}

// WithLogger replaces the watcher logger.
func (w *Watcher) WithLogger(l zerolog.Logger) *Watcher {
	w.logger = l
	return w
}

func (w *Watcher) Path() string {
	return w.path
}

// Run loads once, then calls onLoad after every debounced change until ctx
// is done. The parent directory is watched so editors that replace the file
// are still observed.
func (w *Watcher) Run(ctx context.Context, onLoad func(Settings, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch settings dir: %w", err)
	}
	w.logger.Info().
		Str("event", "settings.watcher_started").
		Str("path", w.path).
		Msg("watching settings for changes")

	onLoad(Load(w.path))

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Str("event", "settings.watcher_stopped").Msg("settings watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug().
					Str("event", "settings.file_changed").
					Str("op", event.Op.String()).
					Msg("settings file changed")
				timer.Reset(w.debounce)
			}

		case <-timer.C:
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Error().
					Err(err).
					Str("event", "settings.reload_failed").
					Msg("settings reload failed")
			}
			onLoad(cfg, err)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().
				Err(err).
				Str("event", "settings.watcher_error").
				Msg("settings watcher error")
		}
	}
}
