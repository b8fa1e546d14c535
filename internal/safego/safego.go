// Package safego runs fire-and-forget goroutines with panic recovery. The
// metrics side-channel server and the db stats poller run under it, so a panic
// in background plumbing is logged instead of taking the process down.
package safego

import "log/slog"

// Go runs fn in its own goroutine and logs a recovered panic instead of
// crashing the process.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in background goroutine", "panic", r)
			}
		}()
		fn()
	}()
}
