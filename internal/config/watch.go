package config

import (
	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/pkg/types"
	"github.com/fsnotify/fsnotify"
)

// WatchForChanges watches configFile for writes and re-runs Load on every
// one, invoking onReload with the freshly validated Config. A run already
// in progress does not pick up a reload automatically — the Supervisor's
// stage workers and Watchdog were constructed from the Config at startup —
// so this exists to surface a drifted-from-disk config loudly instead of
// silently, not to hot-swap a live run's behavior.
//
// The returned stop func closes the underlying watcher; callers should
// defer it.
func WatchForChanges(configFile string, logger logging.Logger, onReload func(*types.Config)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(configFile); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(configFile)
				if err != nil {
					logger.Warn("config: reload failed, keeping previous configuration",
						logging.Fields.String("file", configFile), logging.Fields.Error(err))
					continue
				}
				logger.Info("config: reloaded from disk", logging.Fields.String("file", configFile))
				onReload(cfg)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config: watcher error", logging.Fields.Error(watchErr))
			}
		}
	}()

	return watcher.Close, nil
}
