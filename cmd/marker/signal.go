package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

// ErrInterrupted is the cancellation cause when a signal ends a command.
var ErrInterrupted = errors.New("interrupted")

// notifyContext returns a context canceled when one of interruptSignals
// arrives. context.Cause then reports ErrInterrupted and the signal.
// Call stop() to release the handler.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, interruptSignals...)

	go func() {
		select {
		case sig := <-ch:
			cancel(fmt.Errorf("%w by %s", ErrInterrupted, sig))
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(ch)
		cancel(nil)
	}
}
