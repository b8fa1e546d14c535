package safego

import (
	"testing"
	"time"
)

func TestGo_RunsFunction(t *testing.T) {
	done := make(chan struct{})

	Go(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestGo_RecoversPanic(t *testing.T) {
	done := make(chan struct{})

	// The panic must be swallowed; an unrecovered panic here would kill the
	// whole test binary.
	Go(func() {
		defer close(done)
		panic("background failure")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not finish after panicking")
	}

	// The process is still alive and can launch more background work.
	again := make(chan struct{})
	Go(func() { close(again) })
	select {
	case <-again:
	case <-time.After(2 * time.Second):
		t.Fatal("launcher unusable after a recovered panic")
	}
}
