package mindgames

import "strings"

// Action is the action string submitted to the environment. When
// ParsingFailed is false, Action is not nil.
type Action struct {
	Action        *string `json:"action"`
	ParsingFailed bool    `json:"action_parsing_failed"`
}

// String returns the action text, or an empty string when parsing failed.
func (x Action) String() string {
	if x.Action == nil {
		return ""
	}
	return *x.Action
}

// AgentResponse is the result of one agent turn.
type AgentResponse struct {
	Prompt     string  `json:"prompt,omitempty"`
	Completion string  `json:"completion"`
	Reasoning  *string `json:"reasoning"`
	Action     Action  `json:"action"`
}

// ParseAction turns a completion into an action. The completion is
// accepted as is after trimming; the environment rejects illegal formats.
func ParseAction(completion string) Action {
	return Action{
		Action:        ptr(strings.TrimSpace(completion)),
		ParsingFailed: false,
	}
}
