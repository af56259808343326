// Package poll implements bounded polling with an injectable sleeper.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned by [Until] when every check failed.
var ErrExhausted = errors.New("poll: attempts exhausted")

// A Sleeper pauses between checks. It returns early with the context's
// error if ctx is done. A Sleeper may also return nil before d elapses,
// in which case the next check simply happens sooner.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to a [Sleeper].
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// Sleep is the real-time [Sleeper].
var Sleep Sleeper = SleeperFunc(sleep)

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attempts returns ⌈timeout/interval⌉, and at least 1.
func Attempts(timeout, interval time.Duration) int {
	if timeout <= 0 || interval <= 0 {
		return 1
	}
	return max(int((timeout+interval-1)/interval), 1)
}

// Until calls check at most attempts times, sleeping interval between
// calls, and returns the number of checks performed. It returns as soon as
// check reports true. There is no sleep before the first check or after the
// last one. If every check fails the error is [ErrExhausted]. A nil sleeper
// means [Sleep].
func Until(ctx context.Context, check func() bool, interval time.Duration, attempts int, s Sleeper) (n int, err error) {
	if s == nil {
		s = Sleep
	}
	attempts = max(attempts, 1)

	for n < attempts {
		if err = ctx.Err(); err != nil {
			return
		}

		n++
		if check() {
			return n, nil
		}

		if n == attempts {
			break
		}
		if err = s.Sleep(ctx, interval); err != nil {
			return
		}
	}

	return n, ErrExhausted
}
