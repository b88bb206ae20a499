package runtimebp

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownHandler is the callback type used in HandleShutdown.
type ShutdownHandler func(signal os.Signal)

var defaultSignals = []os.Signal{
	// For ^C
	os.Interrupt,
	syscall.SIGTERM,
}

// HandleShutdown registers a handler to do cleanups for a graceful shutdown.
//
// This function blocks until the ctx passed in is cancelled,
// or a signal happens, whichever comes first.
// So it should usually be started in its own goroutine.
//
// SIGTERM and os.Interrupt are always registered,
// the signals vararg is for any additional signals you wish to handle.
// Do not pass the notification signal of a queue here,
// posixmq subscribes to it on its own.
func HandleShutdown(ctx context.Context, handler ShutdownHandler, signals ...os.Signal) {
	waitShutdown(ctx, subscribe(signals), handler)
}

func subscribe(signals []os.Signal) chan os.Signal {
	sig := make([]os.Signal, 0, len(defaultSignals)+len(signals))
	sig = append(sig, defaultSignals...)
	sig = append(sig, signals...)
	c := make(chan os.Signal, 1)
	signal.Notify(c, sig...)
	return c
}

func waitShutdown(ctx context.Context, c chan os.Signal, handler ShutdownHandler) {
	defer signal.Stop(c)
	select {
	case s := <-c:
		handler(s)
	case <-ctx.Done():
	}
}

// ShutdownContext returns a copy of parent that is canceled when a shutdown
// signal arrives.
//
// The returned stop function releases the signal subscription and should be
// deferred by the caller.
func ShutdownContext(parent context.Context, signals ...os.Signal) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := subscribe(signals)
	done := make(chan struct{})
	go func() {
		defer close(done)
		waitShutdown(ctx, c, func(os.Signal) {
			cancel()
		})
	}()
	return ctx, func() {
		cancel()
		<-done
	}
}
