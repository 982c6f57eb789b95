// Package runner plays arena games with the agent and manages the
// per-track worker loops.
package runner

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
	"github.com/m-mizutani/mindgames/gamelog"
	"github.com/m-mizutani/mindgames/trace"
)

// Agent turns an observation into an action.
type Agent interface {
	Act(ctx context.Context, observation string) (*mindgames.AgentResponse, error)
}

// Player plays one complete game of a track.
type Player interface {
	Play(ctx context.Context, track arena.Track) error
}

// Runner plays single games end to end and saves their logs.
type Runner struct {
	agent  Agent
	newEnv arena.Factory
	repo   gamelog.Repository
	meta   gamelog.Metadata
	now    func() time.Time
	trace  trace.Handler
}

var _ Player = (*Runner)(nil)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock replaces the clock used for log timestamps.
func WithClock(now func() time.Time) RunnerOption {
	return func(x *Runner) {
		x.now = now
	}
}

// WithTrace sets the handler receiving game events.
func WithTrace(h trace.Handler) RunnerOption {
	return func(x *Runner) {
		x.trace = h
	}
}

// New creates a Runner. meta.Track is ignored; each game uses the track
// passed to Play.
func New(agent Agent, newEnv arena.Factory, repo gamelog.Repository, meta gamelog.Metadata, options ...RunnerOption) *Runner {
	x := &Runner{
		agent:  agent,
		newEnv: newEnv,
		repo:   repo,
		meta:   meta,
		now:    time.Now,
		trace:  trace.Nop(),
	}
	for _, opt := range options {
		opt(x)
	}
	if x.trace == nil {
		x.trace = trace.Nop()
	}
	return x
}

// Play runs one game: it waits for a match, answers every observation
// until the game is done and saves the log once at the end. A failed game
// is not saved.
func (x *Runner) Play(ctx context.Context, track arena.Track) error {
	ctx = x.trace.StartGame(ctx, string(track))
	log, err := x.play(ctx, track)

	var data *trace.GameData
	if log != nil {
		data = &trace.GameData{Steps: len(log.Steps), Rewards: log.Rewards}
	}
	x.trace.EndGame(ctx, data, err)
	return err
}

func (x *Runner) play(ctx context.Context, track arena.Track) (*gamelog.GameEvaluationLog, error) {
	logger := ctxlog.From(ctx).With("track", track)

	env, err := x.newEnv(ctx, track)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create environment", goerr.V("track", track))
	}

	closed := false
	defer func() {
		if closed {
			return
		}
		if _, _, closeErr := env.Close(ctx); closeErr != nil {
			logger.Warn("failed to close environment", "error", closeErr)
		}
	}()

	if err := env.Reset(ctx, 1); err != nil {
		return nil, goerr.Wrap(err, "failed to reset environment", goerr.V("track", track))
	}

	meta := x.meta
	meta.Track = track
	log := gamelog.New(meta, x.now())
	logger = logger.With("log_id", log.ID)

	for done := false; !done; {
		playerID, obs, err := env.Observation(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get observation", goerr.V("step", len(log.Steps)))
		}

		observation := obs.Flatten(env.RoleMapping())
		logger.Info("observation", "player_id", playerID, "observation", observation)

		resp, err := x.agent.Act(ctx, observation)
		if err != nil {
			return nil, goerr.Wrap(err, "agent failed to act", goerr.V("player_id", playerID), goerr.V("step", len(log.Steps)))
		}
		logger.Info("agent response",
			"player_id", playerID,
			"completion", resp.Completion,
			"action", resp.Action.String(),
		)

		var info arena.StepInfo
		done, info, err = env.Step(ctx, resp.Action.String())
		if err != nil {
			return nil, goerr.Wrap(err, "failed to step environment", goerr.V("player_id", playerID), goerr.V("step", len(log.Steps)))
		}
		logger.Info("step info", "done", done, "step_info", info)

		log.AddStep(gamelog.GameStep{
			PlayerID:    playerID,
			Observation: observation,
			Action:      resp,
			StepInfo:    info,
		})
	}

	info := env.Info()
	log.OnlineEnvironmentInfo = &info

	closed = true
	rewards, gameInfo, err := env.Close(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to close environment", goerr.V("env_id", info.EnvID))
	}
	logger.Info("game finished",
		"rewards", rewards,
		"game_info", gameInfo,
		"steps", len(log.Steps),
		"matched_env_name", info.MatchedEnvName,
	)

	log.Finish(x.now(), rewards, gameInfo)

	if err := x.repo.Save(ctx, log); err != nil {
		return nil, goerr.Wrap(err, "failed to save game log", goerr.V("log_id", log.ID))
	}

	return log, nil
}
