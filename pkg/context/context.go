package context

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/pt3002/CN-Project/pkg/log"
)

// ExitInterrupted is the process exit code used when a run is aborted by an interrupt
const ExitInterrupted = 1

var (
	ctx            context.Context
	cancel         context.CancelFunc
	ctxInitialized sync.Once

	interrupted int32
)

// AddInterruptCancellation will add an interrupt handler that will catch the first SIGINT/SIGTERM and cancel the context.
// A load test run treats this as fatal: the dispatcher stops, no partial results are kept and the caller exits.
// upon a second signal, the program will exit immediately without waiting for in-flight requests
func AddInterruptCancellation(ctx context.Context, cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		interrupts := 0
		done := ctx.Done()
		for {
			select {
			case <-c:
				interrupts++
				atomic.StoreInt32(&interrupted, 1)
				if interrupts > 1 {
					log.Info().Msg("Received multiple interrupt signals. Exiting")
					os.Exit(ExitInterrupted)
				}
				log.Info().Msg("Received interrupt signal. Aborting run")
				cancel()
				// keep listening for the second signal once our own cancel closes done
				done = nil
			case <-done:
				signal.Stop(c)
				return
			}
		}
	}()
}

// InitContext will initialize the global context used to catch interrupts. This is automatically called
// by Context and Cancel
func InitContext() {
	ctxInitialized.Do(func() {
		ctx, cancel = context.WithCancel(context.Background())
		AddInterruptCancellation(ctx, cancel)
	})
}

// Context will initialize the global context and attach the interrupt handler that will cancel the context
// upon SIGINT. This is safe to call from multiple goroutines and will always return the same context
func Context() context.Context {
	InitContext()
	return ctx
}

// Cancel will cancel the global context. Calling this multiple times is the equivalent of cancelling
// the same context multiple times
func Cancel() {
	InitContext()
	cancel()
}

// Interrupted reports whether an interrupt signal has been received by the handler
func Interrupted() bool {
	return atomic.LoadInt32(&interrupted) == 1
}
