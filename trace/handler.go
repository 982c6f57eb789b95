// Package trace receives lifecycle events of games, agent turns and LLM
// calls and forwards them to a tracing backend.
package trace

import "context"

// Handler is the interface for trace backends.
type Handler interface {
	// StartGame starts the span of one arena game.
	StartGame(ctx context.Context, track string) context.Context
	// EndGame ends the game span.
	EndGame(ctx context.Context, data *GameData, err error)

	// StartTurn starts the span of one agent turn.
	StartTurn(ctx context.Context, kind string) context.Context
	// EndTurn ends the turn span with the chosen action.
	EndTurn(ctx context.Context, data *TurnData, err error)

	// StartLLMCall starts the span of one completion attempt.
	StartLLMCall(ctx context.Context, attempt int) context.Context
	// EndLLMCall ends the completion attempt span.
	EndLLMCall(ctx context.Context, data *LLMCallData, err error)
}

// GameData describes a finished game.
type GameData struct {
	Steps   int
	Rewards map[int]float64
}

// TurnData describes a finished agent turn.
type TurnData struct {
	Action              string
	ActionParsingFailed bool
}

// LLMCallData describes one completion attempt.
type LLMCallData struct {
	Model        string
	Attempt      int
	Completion   string
	HasReasoning bool
}

type nopHandler struct{}

// Nop returns a Handler that drops every event.
func Nop() Handler {
	return nopHandler{}
}

func (nopHandler) StartGame(ctx context.Context, _ string) context.Context { return ctx }
func (nopHandler) EndGame(context.Context, *GameData, error)               {}
func (nopHandler) StartTurn(ctx context.Context, _ string) context.Context { return ctx }
func (nopHandler) EndTurn(context.Context, *TurnData, error)               {}
func (nopHandler) StartLLMCall(ctx context.Context, _ int) context.Context { return ctx }
func (nopHandler) EndLLMCall(context.Context, *LLMCallData, error)         {}
