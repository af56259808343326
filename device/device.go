// Package device finds the serial device node of the modem and waits for it
// to appear. Device nodes are only ever observed, never created.
package device

import (
	"context"
	"errors"
	"time"

	"github.com/lone-faerie/smsgateway/internal/file"
	"github.com/lone-faerie/smsgateway/internal/poll"
	"github.com/lone-faerie/smsgateway/log"
)

// ErrTimeout is returned by [Wait] when the device never appeared.
var ErrTimeout = errors.New("device did not appear")

// Exists reports whether the device node at path exists.
func Exists(path string) bool {
	return file.Exists(path)
}

// Fallback returns the first of paths that exists.
func Fallback(paths []string) (string, bool) {
	for _, p := range paths {
		if Exists(p) {
			return p, true
		}
	}
	return "", false
}

type waitOptions struct {
	sleeper poll.Sleeper
	exists  func(string) bool
	watch   bool
}

// A WaitOption configures [Wait].
type WaitOption func(*waitOptions)

// WithSleeper uses s between checks instead of sleeping in real time.
func WithSleeper(s poll.Sleeper) WaitOption {
	return func(o *waitOptions) { o.sleeper = s }
}

// WithWatch wakes the wait early when the device's directory changes.
// The number of checks is unchanged.
func WithWatch(watch bool) WaitOption {
	return func(o *waitOptions) { o.watch = watch }
}

// WithExists replaces the existence check.
func WithExists(fn func(string) bool) WaitOption {
	return func(o *waitOptions) { o.exists = fn }
}

// Wait checks for the device node at path every interval, at most attempts
// times, and returns the number of checks made. It returns as soon as the
// node exists, so an existing node costs a single check and no sleep. If
// the node never appears the error wraps [ErrTimeout].
func Wait(ctx context.Context, path string, interval time.Duration, attempts int, opts ...WaitOption) (int, error) {
	o := waitOptions{exists: Exists}
	for _, opt := range opts {
		opt(&o)
	}

	if o.sleeper == nil {
		o.sleeper = poll.Sleep
		if o.watch {
			w, err := newWatchSleeper(path)
			if err != nil {
				log.Debug("Not watching device directory", "path", path, "error", err)
			} else {
				defer w.Close()
				o.sleeper = w
			}
		}
	}

	n, err := poll.Until(ctx, func() bool {
		ok := o.exists(path)
		if !ok {
			log.Debug("Waiting for device", "path", path)
		}
		return ok
	}, interval, attempts, o.sleeper)

	if errors.Is(err, poll.ErrExhausted) {
		err = ErrTimeout
	}
	return n, err
}
