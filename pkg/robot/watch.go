package robot

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/SomethingsBruin/T-Shirt-Robot/pkg/mechanism"
)

// WatchTunables calls fn with the tunables from path every time the file is
// written, until ctx is done. A file that fails to load or validate is
// reported through fn with a non-nil error and the zero Tunables.
//
// The directory is watched rather than the file so editors that replace the
// file on save keep being followed.
func WatchTunables(ctx context.Context, path string, fn func(mechanism.Tunables, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	name := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			cfg, err := LoadConfigFrom(path)
			if err != nil {
				fn(mechanism.Tunables{}, err)
				continue
			}
			fn(cfg.Tunables, nil)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fn(mechanism.Tunables{}, fmt.Errorf("watch %s: %w", path, err))
		}
	}
}
