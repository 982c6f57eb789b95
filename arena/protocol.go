package arena

import "encoding/json"

// Commands exchanged with the arena over WebSocket. Every frame is a JSON
// object with a "command" field.
const (
	cmdQueue       = "queue"
	cmdQueued      = "queued"
	cmdMatchFound  = "match_found"
	cmdObservation = "observation"
	cmdAction      = "action"
	cmdActionAck   = "action_ack"
	cmdGameOver    = "game_over"
	cmdPing        = "ping"
	cmdPong        = "pong"
	cmdTimedOut    = "timed_out"
	cmdError       = "error"
)

type registerRequest struct {
	ModelName     string `json:"model_name"`
	Description   string `json:"description"`
	TeamHash      string `json:"team_hash"`
	Track         Track  `json:"track"`
	SmallCategory bool   `json:"small_category"`
}

type registerResponse struct {
	ModelToken string `json:"model_token"`
}

type queueRequest struct {
	Command       string `json:"command"`
	Track         Track  `json:"track"`
	SmallCategory bool   `json:"small_category"`
	NumPlayers    int    `json:"num_players"`
}

type actionRequest struct {
	Command string `json:"command"`
	Action  string `json:"action"`
}

type pongRequest struct {
	Command string `json:"command"`
}

// serverMessage is the union of every frame the arena sends.
type serverMessage struct {
	Command string `json:"command"`

	// match_found
	GameURL        string `json:"game_url,omitempty"`
	EnvID          string `json:"env_id,omitempty"`
	EnvironmentID  int    `json:"environment_id,omitempty"`
	MatchedEnvName string `json:"env_name,omitempty"`

	// observation
	PlayerID    int             `json:"player_id,omitempty"`
	Observation json.RawMessage `json:"observation,omitempty"`
	RoleMapping map[int]string  `json:"role_mapping,omitempty"`

	// action_ack
	StepInfo StepInfo `json:"step_info,omitempty"`

	// game_over
	Rewards  Rewards  `json:"rewards,omitempty"`
	GameInfo GameInfo `json:"game_info,omitempty"`

	// error, timed_out
	Message string `json:"message,omitempty"`
}
