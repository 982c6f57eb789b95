package arena

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// GameID is the sender id of messages emitted by the game itself.
const GameID = -1

// Message is one entry of a structured observation.
type Message struct {
	SenderID int
	Text     string
	Kind     json.RawMessage
}

// UnmarshalJSON accepts [sender_id, message, kind] arrays and
// {"sender_id", "message", "kind"} objects.
func (x *Message) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			return goerr.Wrap(err, "failed to decode observation tuple")
		}
		if len(tuple) < 2 {
			return goerr.New("observation tuple is too short", goerr.V("length", len(tuple)))
		}
		if err := json.Unmarshal(tuple[0], &x.SenderID); err != nil {
			return goerr.Wrap(err, "failed to decode sender id")
		}
		if err := json.Unmarshal(tuple[1], &x.Text); err != nil {
			return goerr.Wrap(err, "failed to decode message")
		}
		if len(tuple) > 2 {
			x.Kind = tuple[2]
		}
		return nil
	}

	var obj struct {
		SenderID int             `json:"sender_id"`
		Message  string          `json:"message"`
		Kind     json.RawMessage `json:"kind"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return goerr.Wrap(err, "failed to decode observation message")
	}
	x.SenderID, x.Text, x.Kind = obj.SenderID, obj.Message, obj.Kind
	return nil
}

// Observation is either plain text or a list of messages.
type Observation struct {
	Text     *string
	Messages []Message
}

// TextObservation returns an observation holding plain text.
func TextObservation(text string) Observation {
	return Observation{Text: &text}
}

// UnmarshalJSON accepts a JSON string or a list of messages.
func (x *Observation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return goerr.Wrap(err, "failed to decode text observation")
		}
		x.Text, x.Messages = &text, nil
		return nil
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return goerr.Wrap(err, "failed to decode observation messages")
	}
	x.Text, x.Messages = nil, messages
	return nil
}

// Flatten renders the observation as one line per message. Game messages
// are prefixed with [GAME]; players are named by roleMapping, or
// "Player N" when the mapping has no entry.
func (x Observation) Flatten(roleMapping map[int]string) string {
	if x.Text != nil {
		return *x.Text
	}

	lines := make([]string, 0, len(x.Messages))
	for _, msg := range x.Messages {
		lines = append(lines, fmt.Sprintf("[%s] %s", senderName(msg.SenderID, roleMapping), msg.Text))
	}
	return strings.Join(lines, "\n")
}

func senderName(id int, roleMapping map[int]string) string {
	if id == GameID {
		return "GAME"
	}
	if name, ok := roleMapping[id]; ok {
		return name
	}
	return fmt.Sprintf("Player %d", id)
}
