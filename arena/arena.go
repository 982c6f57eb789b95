// Package arena connects the agent to game environments hosted by an
// online arena.
package arena

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
)

// Track is a competition track. Each track queues for its own set of games.
type Track string

const (
	TrackGeneralization  Track = "Generalization"
	TrackSocialDetection Track = "Social Detection"
)

// Tracks lists every known track in play order.
var Tracks = []Track{TrackGeneralization, TrackSocialDetection}

func (x Track) String() string {
	return string(x)
}

// Validate returns ErrUnknownTrack for names other than the known tracks.
func (x Track) Validate() error {
	for _, t := range Tracks {
		if x == t {
			return nil
		}
	}
	return goerr.Wrap(ErrUnknownTrack, "unknown track", goerr.V("track", x))
}

var (
	// ErrRegistrationFailed is returned when the arena rejects the model
	// registration. Retrying does not help, so workers stop on it.
	ErrRegistrationFailed = goerr.New("model registration failed")

	ErrUnknownTrack     = goerr.New("unknown track")
	ErrGameOver         = goerr.New("game is already over")
	ErrNotStarted       = goerr.New("game is not started")
	ErrUnexpectedServer = goerr.New("unexpected message from arena")
)

// StepInfo is the free-form information the environment returns for a step.
type StepInfo map[string]any

// Rewards maps player ids to their final reward.
type Rewards map[int]float64

// GameInfo is the free-form summary the environment returns at close.
type GameInfo map[string]any

// SessionInfo identifies the arena session a game was played in.
type SessionInfo struct {
	GameURL        string `json:"game_url"`
	EnvID          string `json:"env_id"`
	EnvironmentID  int    `json:"environment_id"`
	MatchedEnvName string `json:"matched_env_name"`
}

// Environment is one game session.
type Environment interface {
	// Reset starts a new game for numPlayers local players.
	Reset(ctx context.Context, numPlayers int) error
	// Observation returns the player to act and what that player sees.
	Observation(ctx context.Context) (int, Observation, error)
	// Step submits the action of the current player.
	Step(ctx context.Context, action string) (bool, StepInfo, error)
	// Close ends the session and returns the outcome.
	Close(ctx context.Context) (Rewards, GameInfo, error)

	Info() SessionInfo
	RoleMapping() map[int]string
}

// Factory creates a fresh environment for a track.
type Factory func(ctx context.Context, track Track) (Environment, error)
