package runner

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mindgames/arena"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle state of a worker.
type State int32

const (
	StateRunning State = iota
	StateShuttingDown
	StateStopped
)

func (x State) String() string {
	switch x {
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const DefaultErrorBackoff = 5 * time.Second

// Worker plays games of one track until it reaches the game limit, the
// arena rejects the registration or shutdown completes.
type Worker struct {
	track    arena.Track
	player   Player
	shutdown *Shutdown

	maxGames     *int
	errorBackoff time.Duration

	state       atomic.Int32
	gamesPlayed atomic.Int64
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithMaxGames limits the number of successful games. nil means no limit.
func WithMaxGames(n *int) WorkerOption {
	return func(x *Worker) {
		x.maxGames = n
	}
}

// WithErrorBackoff sets the wait after a failed game.
func WithErrorBackoff(d time.Duration) WorkerOption {
	return func(x *Worker) {
		x.errorBackoff = d
	}
}

func NewWorker(track arena.Track, player Player, shutdown *Shutdown, options ...WorkerOption) *Worker {
	x := &Worker{
		track:        track,
		player:       player,
		shutdown:     shutdown,
		errorBackoff: DefaultErrorBackoff,
	}
	for _, opt := range options {
		opt(x)
	}
	return x
}

func (x *Worker) State() State {
	return State(x.state.Load())
}

// GamesPlayed returns the number of games completed successfully.
func (x *Worker) GamesPlayed() int {
	return int(x.gamesPlayed.Load())
}

// Run is the worker loop. After shutdown is triggered, the game that is
// running (or the next one, if none is) is finished and then the worker
// stops. Games failing after the trigger count toward that allowance.
// A registration failure stops the worker and is returned.
func (x *Worker) Run(ctx context.Context) error {
	logger := ctxlog.From(ctx).With("track", x.track)
	ctx = ctxlog.With(ctx, logger)
	defer x.state.Store(int32(StateStopped))

	logger.Info("worker started")
	playedAfterShutdown := 0

	for {
		if ctx.Err() != nil {
			logger.Warn("worker cancelled", "error", ctx.Err())
			return nil
		}

		if x.maxGames != nil && x.GamesPlayed() >= *x.maxGames {
			logger.Info("max games reached, exiting worker", "max_games", *x.maxGames)
			return nil
		}

		if x.shutdown.Triggered() {
			x.state.Store(int32(StateShuttingDown))
			if playedAfterShutdown >= 1 {
				logger.Info("final game completed after shutdown, exiting worker")
				return nil
			}
			logger.Info("shutdown requested, will play one last game")
		}

		err := x.player.Play(ctx, x.track)
		switch {
		case errors.Is(err, arena.ErrRegistrationFailed):
			logger.Error("model registration failed, exiting worker", "error", err)
			return goerr.Wrap(err, "worker stopped", goerr.V("track", x.track))

		case err != nil:
			logger.Error("unhandled error in worker, continuing", "error", err)
			if x.shutdown.Triggered() {
				playedAfterShutdown++
				continue
			}
			x.wait(ctx)
			continue
		}

		played := x.gamesPlayed.Add(1)
		logger.Info("game completed", "games_played", played, "max_games", limitString(x.maxGames))
		if x.shutdown.Triggered() {
			playedAfterShutdown++
		}
	}
}

func limitString(n *int) string {
	if n == nil {
		return "None"
	}
	return strconv.Itoa(*n)
}

// wait sleeps for the error backoff unless shutdown or cancellation comes first.
func (x *Worker) wait(ctx context.Context) {
	if x.errorBackoff <= 0 {
		return
	}
	timer := time.NewTimer(x.errorBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-x.shutdown.Done():
	case <-timer.C:
	}
}

// Supervisor runs one worker per track and waits for all of them. A worker
// failing does not stop the others; Run returns the first error once every
// worker has exited.
type Supervisor struct {
	workers []*Worker
}

func NewSupervisor(workers ...*Worker) *Supervisor {
	return &Supervisor{workers: workers}
}

func (x *Supervisor) Run(ctx context.Context) error {
	var eg errgroup.Group
	for _, w := range x.workers {
		eg.Go(func() error {
			return w.Run(ctx)
		})
	}
	return eg.Wait()
}
