package device

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lone-faerie/smsgateway/log"
)

// watchSleeper sleeps like [poll.Sleep] but wakes early when an entry is
// created in the watched directory.
type watchSleeper struct {
	w    *fsnotify.Watcher
	name string
}

func newWatchSleeper(path string) (*watchSleeper, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	return &watchSleeper{w: w, name: filepath.Clean(path)}, nil
}

func (s *watchSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	events, errs := s.w.Events, s.w.Errors
	for {
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Has(fsnotify.Create) && filepath.Clean(ev.Name) == s.name {
				log.Debug("Device created", "path", ev.Name)
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			log.Debug("Device watcher error", "error", err)
		}
	}
}

func (s *watchSleeper) Close() error {
	return s.w.Close()
}
