package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Duration
	sleeps int
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps++
	c.now += d
	return ctx.Err()
}

func TestWaitExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyUSB0")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	clock := new(fakeClock)
	n, err := Wait(context.Background(), path, 2*time.Second, 30, WithSleeper(clock))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || clock.sleeps != 0 {
		t.Errorf("wanted 1 check and no sleeps, got %d checks and %d sleeps", n, clock.sleeps)
	}
}

func TestWaitTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ttyUSB0")

	clock := new(fakeClock)
	n, err := Wait(context.Background(), path, 2*time.Second, 30, WithSleeper(clock))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("wanted ErrTimeout, got %v", err)
	}
	if n != 30 {
		t.Errorf("wanted 30 checks, got %d", n)
	}
}

func TestWaitAppears(t *testing.T) {
	clock := new(fakeClock)
	exists := func(string) bool { return clock.now >= 3*time.Second }

	n, err := Wait(context.Background(), "/dev/ttyUSB0", 2*time.Second, 30,
		WithSleeper(clock), WithExists(exists))
	if err != nil {
		t.Fatal(err)
	}
	if clock.now > 4*time.Second {
		t.Errorf("proceeded at %v, wanted within 4s", clock.now)
	}
	if n != 3 {
		t.Errorf("wanted 3 checks, got %d", n)
	}
}

func TestWaitWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ttyUSB0")

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(path, nil, 0o644)
	}()

	start := time.Now()
	n, err := Wait(context.Background(), path, 10*time.Second, 3, WithWatch(true))
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("watch did not wake the wait early, took %v", elapsed)
	}
	if n != 2 {
		t.Errorf("wanted 2 checks, got %d", n)
	}
}

func TestWaitWatchMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial", "by-id", "usb-modem")
	n, err := Wait(context.Background(), path, 10*time.Millisecond, 2, WithWatch(true))
	if n != 2 {
		t.Errorf("wanted 2 checks, got %d", n)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("wanted ErrTimeout, got %v", err)
	}
}

func TestFallback(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "ttyUSB0"),
		filepath.Join(dir, "ttyUSB1"),
		filepath.Join(dir, "ttyUSB2"),
		filepath.Join(dir, "ttyACM0"),
	}

	if _, ok := Fallback(paths); ok {
		t.Fatal("found device in empty directory")
	}

	for _, p := range paths[2:] {
		if err := os.WriteFile(p, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, ok := Fallback(paths)
	if !ok || got != paths[2] {
		t.Errorf("wanted %s, got %q", paths[2], got)
	}
}
