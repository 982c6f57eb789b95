// Package gamelog records and persists the evaluation log of each game.
package gamelog

import (
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/mindgames"
	"github.com/m-mizutani/mindgames/arena"
)

// GameStep is one agent turn.
type GameStep struct {
	PlayerID    int                      `json:"player_id"`
	Observation string                   `json:"observation"`
	Action      *mindgames.AgentResponse `json:"action"`
	StepInfo    arena.StepInfo           `json:"step_info"`
}

// OnlineEnvironmentInfo identifies the arena session of the game.
type OnlineEnvironmentInfo = arena.SessionInfo

// GameEvaluationLog is the record of one game. It is written once, after
// the game has ended.
type GameEvaluationLog struct {
	ID                     string                 `json:"id"`
	PublicModelName        string                 `json:"public_model_name"`
	PublicModelDescription string                 `json:"public_model_description"`
	Track                  arena.Track            `json:"track"`
	SmallCategory          bool                   `json:"small_category"`
	StartTime              time.Time              `json:"start_time"`
	EndTime                *time.Time             `json:"end_time"`
	Rewards                arena.Rewards          `json:"rewards"`
	GameInfo               arena.GameInfo         `json:"game_info"`
	Steps                  []GameStep             `json:"steps"`
	OnlineEnvironmentInfo  *OnlineEnvironmentInfo `json:"online_environment_info"`
}

// Metadata is the part of the log known before the game starts.
type Metadata struct {
	PublicModelName        string
	PublicModelDescription string
	Track                  arena.Track
	SmallCategory          bool
}

// New starts a log at the given time.
func New(meta Metadata, startTime time.Time) *GameEvaluationLog {
	return &GameEvaluationLog{
		ID:                     uuid.NewString(),
		PublicModelName:        meta.PublicModelName,
		PublicModelDescription: meta.PublicModelDescription,
		Track:                  meta.Track,
		SmallCategory:          meta.SmallCategory,
		StartTime:              startTime.UTC(),
		Steps:                  []GameStep{},
	}
}

// AddStep appends a turn in play order.
func (x *GameEvaluationLog) AddStep(step GameStep) {
	x.Steps = append(x.Steps, step)
}

// Finish records the outcome of the game.
func (x *GameEvaluationLog) Finish(endTime time.Time, rewards arena.Rewards, gameInfo arena.GameInfo) {
	end := endTime.UTC()
	x.EndTime = &end
	x.Rewards = rewards
	x.GameInfo = gameInfo
}
