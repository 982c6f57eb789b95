package runner

import (
	"context"
	"os"
	"sync"

	"github.com/m-mizutani/ctxlog"
)

// Shutdown is a one-way graceful shutdown signal shared by all workers.
type Shutdown struct {
	once sync.Once
	ch   chan struct{}
}

func NewShutdown() *Shutdown {
	return &Shutdown{ch: make(chan struct{})}
}

// Trigger requests shutdown. Calling it more than once has no effect.
func (x *Shutdown) Trigger() {
	x.once.Do(func() { close(x.ch) })
}

func (x *Shutdown) Triggered() bool {
	select {
	case <-x.ch:
		return true
	default:
		return false
	}
}

// Done is closed when shutdown is triggered.
func (x *Shutdown) Done() <-chan struct{} {
	return x.ch
}

// HandleSignals triggers a graceful shutdown on the first signal and
// calls forceExit on the second. It returns when ctx is done or after
// forceExit returns.
func HandleSignals(ctx context.Context, signals <-chan os.Signal, shutdown *Shutdown, forceExit func()) {
	logger := ctxlog.From(ctx)
	received := 0

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			received++
			if received == 1 {
				logger.Info("requesting graceful shutdown (finish current game)", "signal", sig.String())
				shutdown.Trigger()
				continue
			}
			logger.Warn("received second termination signal, forcing immediate exit", "signal", sig.String())
			forceExit()
			return
		}
	}
}
