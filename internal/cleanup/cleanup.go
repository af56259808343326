// Package cleanup collects functions to run before the process exits or is
// replaced by the gateway application.
package cleanup

import "sync"

var (
	registered []func()
	mu         sync.Mutex
)

// Register adds fn to the functions run by [Cleanup].
func Register(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	registered = append(registered, fn)
}

// Cleanup runs the registered functions in reverse order of registration.
// Each function runs at most once.
func Cleanup() {
	mu.Lock()
	fns := registered
	registered = nil
	mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
