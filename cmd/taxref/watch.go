package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long to wait for writes to stop before running again.
const settle = 250 * time.Millisecond

// watchFiles calls fn each time one of paths is modified, until ctx is
// canceled. Errors from fn are logged.
//
// The parent directories are watched rather than the files so that editors
// replacing a file through a rename are noticed.
func watchFiles(ctx context.Context, paths []string, fn func(context.Context) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	want := make(map[string]struct{}, len(paths))
	dirs := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		want[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := w.Add(dir); err != nil {
			return err
		}
		dirs[dir] = struct{}{}
	}
	slog.InfoContext(ctx, "Watching", "files", len(want))

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if _, ok := want[filepath.Clean(event.Name)]; !ok {
				continue
			}
			slog.DebugContext(ctx, "File modified", "path", event.Name, "op", event.Op.String())
			timer.Reset(settle)
		case <-timer.C:
			slog.InfoContext(ctx, "Input modified, running again")
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				slog.ErrorContext(ctx, "Run failed", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching files", "err", err)
		}
	}
}
