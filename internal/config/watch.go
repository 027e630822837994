package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the burst of events editors produce when they
// save (truncate + write, or write temp + rename).
const reloadDebounce = 200 * time.Millisecond

// Watcher reloads the config file into a Holder whenever it changes on disk.
// A file that fails to parse or validate leaves the current config in place.
type Watcher struct {
	holder   *Holder
	env      EnvOverrides
	cli      CLIOverrides
	logger   *slog.Logger
	onReload func(*Config)
	debounce time.Duration
}

// NewWatcher creates a watcher for h's config path. Env and CLI overrides
// are re-applied on every reload. onReload may be nil.
func NewWatcher(h *Holder, env EnvOverrides, cli CLIOverrides, logger *slog.Logger, onReload func(*Config)) *Watcher {
	return &Watcher{
		holder:   h,
		env:      env,
		cli:      cli,
		logger:   logger,
		onReload: onReload,
		debounce: reloadDebounce,
	}
}

// Run watches until ctx is cancelled. The parent directory is watched
// rather than the file itself so atomic replace-by-rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	path := filepath.Clean(w.holder.Path())
	dir := filepath.Dir(path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		// No config directory means no config file to edit; nothing to watch.
		w.logger.Info("config directory not watchable, hot reload disabled",
			slog.String("dir", dir),
			slog.String("error", err.Error()),
		)

		<-ctx.Done()

		return nil
	}

	w.logger.Debug("watching config file", slog.String("path", path))

	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != path || ev.Op == fsnotify.Chmod {
				continue
			}

			pending = time.After(w.debounce)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("config watcher error", slog.String("error", watchErr.Error()))

		case <-pending:
			pending = nil
			w.Reload()
		}
	}
}

// Reload re-reads the config file now. It returns false when the file was
// rejected and the previous config was kept.
func (w *Watcher) Reload() bool {
	cfg, err := LoadOrDefault(w.holder.Path())
	if err == nil {
		applyOverrides(cfg, w.env, w.cli)
		err = Validate(cfg)
	}

	if err != nil {
		w.logger.Warn("config reload rejected, keeping previous config",
			slog.String("path", w.holder.Path()),
			slog.String("error", err.Error()),
		)

		return false
	}

	w.holder.Update(cfg)
	w.logger.Info("config reloaded", slog.String("path", w.holder.Path()))

	if w.onReload != nil {
		w.onReload(cfg)
	}

	return true
}
