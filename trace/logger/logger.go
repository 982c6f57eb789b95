// Package logger provides a trace handler that writes events through slog.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/mindgames/trace"
)

// Event represents a trace event type that can be selectively enabled.
type Event int

const (
	// Game enables logging of game start and end.
	Game Event = iota
	// Turn enables logging of agent turns.
	Turn
	// LLMCall enables logging of completion attempts.
	LLMCall

	eventCount
)

type config struct {
	logger *slog.Logger
	events map[Event]bool
}

// Option configures the logger handler.
type Option func(*config)

// WithLogger sets a fixed slog.Logger. By default the logger carried by
// the context is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithEvents enables only the specified event types.
func WithEvents(events ...Event) Option {
	return func(c *config) {
		c.events = make(map[Event]bool, len(events))
		for _, e := range events {
			c.events[e] = true
		}
	}
}

type handler struct {
	cfg config
}

// New creates a trace.Handler that logs events. All events are enabled
// unless WithEvents is given.
func New(opts ...Option) trace.Handler {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.events == nil {
		cfg.events = make(map[Event]bool, eventCount)
		for i := Event(0); i < eventCount; i++ {
			cfg.events[i] = true
		}
	}

	return &handler{cfg: cfg}
}

func (h *handler) logger(ctx context.Context) *slog.Logger {
	if h.cfg.logger != nil {
		return h.cfg.logger
	}
	return ctxlog.From(ctx)
}

type startTimeKey struct{}

func withStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func startTimeFrom(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

type labelKey struct{}

func withLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

func labelFrom(ctx context.Context) string {
	label, _ := ctx.Value(labelKey{}).(string)
	return label
}

func (h *handler) StartGame(ctx context.Context, track string) context.Context {
	if h.cfg.events[Game] {
		h.logger(ctx).InfoContext(ctx, "game started", slog.String("track", track))
	}
	return withLabel(withStartTime(ctx, time.Now()), track)
}

func (h *handler) EndGame(ctx context.Context, data *trace.GameData, err error) {
	if !h.cfg.events[Game] {
		return
	}

	attrs := []any{
		slog.String("track", labelFrom(ctx)),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if data != nil {
		attrs = append(attrs,
			slog.Int("steps", data.Steps),
			slog.Any("rewards", data.Rewards),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger(ctx).InfoContext(ctx, "game ended", attrs...)
}

func (h *handler) StartTurn(ctx context.Context, kind string) context.Context {
	return withLabel(withStartTime(ctx, time.Now()), kind)
}

func (h *handler) EndTurn(ctx context.Context, data *trace.TurnData, err error) {
	if !h.cfg.events[Turn] {
		return
	}

	attrs := []any{
		slog.String("kind", labelFrom(ctx)),
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if data != nil {
		attrs = append(attrs,
			slog.String("action", data.Action),
			slog.Bool("action_parsing_failed", data.ActionParsingFailed),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger(ctx).InfoContext(ctx, "agent turn", attrs...)
}

func (h *handler) StartLLMCall(ctx context.Context, _ int) context.Context {
	return withStartTime(ctx, time.Now())
}

func (h *handler) EndLLMCall(ctx context.Context, data *trace.LLMCallData, err error) {
	if !h.cfg.events[LLMCall] {
		return
	}

	attrs := []any{
		slog.Duration("duration", time.Since(startTimeFrom(ctx))),
	}
	if data != nil {
		attrs = append(attrs,
			slog.String("model", data.Model),
			slog.Int("attempt", data.Attempt),
			slog.Int("completion_length", len(data.Completion)),
			slog.Bool("has_reasoning", data.HasReasoning),
		)
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	h.logger(ctx).DebugContext(ctx, "llm call", attrs...)
}
