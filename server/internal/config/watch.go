package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce coalesces the event burst an atomic save produces
// (rename + create + write within a few milliseconds) into one reload.
const reloadDebounce = 200 * time.Millisecond

// Watch monitors path and calls onChange with the newly loaded Config
// after each change settles. Only the hot-swappable settings (monitor
// profile, row order, notify rules) are expected to take effect at
// runtime; ports and table paths need a restart. It runs until ctx is
// cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous settings remain active — Watch does not call onChange.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(reloadDebounce)

		case <-pending:
			pending = nil

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous settings",
					"path", path, "err", err)
				continue
			}

			if prof, ok := cfg.ActiveProfile(); ok {
				slog.Info("config: reloaded",
					"path", path,
					"class", prof.SelectedClass,
					"monitored_skills", len(prof.MonitoredSkillIDs),
					"monitored_buffs", len(prof.MonitoredBuffIDs),
					"row_order", cfg.Server.RowOrder,
				)
			} else {
				slog.Info("config: reloaded — monitoring disabled",
					"path", path, "row_order", cfg.Server.RowOrder)
			}
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}
