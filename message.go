package mindgames

import "strings"

// MessageRole is the role of a chat message.
type MessageRole string

const (
	RoleSystem MessageRole = "system"
	RoleUser   MessageRole = "user"
)

// Message is one chat message sent to the completion endpoint.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// FormatPrompt renders messages as a single audit string, one banner per
// message role.
func FormatPrompt(messages []Message) string {
	var b strings.Builder
	banner := strings.Repeat("#", 15)
	for _, msg := range messages {
		b.WriteString(banner + strings.ToUpper(string(msg.Role)) + banner + "\n")
		b.WriteString(msg.Content + "\n")
	}
	return strings.TrimSpace(b.String())
}
