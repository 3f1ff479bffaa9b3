package context

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/assetnote/serverbench/pkg/log"
)

var (
	ctx            context.Context
	cancel         context.CancelFunc
	ctxInitialized sync.Once

	hooksMu      sync.Mutex
	hooks        []func()
	hooksRunning chan struct{} // closed when the in-progress RunShutdownHooks call finishes
)

// AddInterruptCancellation will add an interrupt handler that will catch the first SIGTERM, run the
// registered shutdown hooks and cancel the context.
// upon second SIGTERM, the program will exit immediately. The handler keeps reading signals after ctx
// is cancelled so that second signal is never swallowed
func AddInterruptCancellation(ctx context.Context, cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		interrupts := 0
		for range c {
			interrupts++
			if interrupts > 1 {
				log.Info().Msg("Received multiple interrupt signals. Exiting")
				os.Exit(1)
			}
			if ctx.Err() == nil {
				log.Info().Msg("Received interrupt signal. Shutting down")
			}
			cancel()
			go RunShutdownHooks()
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
// upon SIGTERM. This is safe to call from multiple goroutines and will always return the same context
func Context() context.Context {
	InitContext()
	return ctx
}

// Cancel will cancel the global context and run the shutdown hooks.
func Cancel() {
	InitContext()
	cancel()
	RunShutdownHooks()
}

// OnShutdown registers f to be run once when the process is interrupted or Cancel is called.
// Hooks run in reverse registration order, so resources are released before the things they depend on
func OnShutdown(f func()) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = append(hooks, f)
}

// RunShutdownHooks runs and clears every registered hook. If another call is already running the hooks,
// RunShutdownHooks waits for it to finish instead. Calling it again afterwards is a no-op until new hooks
// are registered
func RunShutdownHooks() {
	hooksMu.Lock()
	if running := hooksRunning; running != nil {
		hooksMu.Unlock()
		<-running
		return
	}
	pending := hooks
	hooks = nil
	done := make(chan struct{})
	hooksRunning = done
	hooksMu.Unlock()

	defer func() {
		hooksMu.Lock()
		hooksRunning = nil
		hooksMu.Unlock()
		close(done)
	}()

	for i := len(pending) - 1; i >= 0; i-- {
		pending[i]()
	}
}
