package domain

import "time"

// Role identifies the author of a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single message exchanged in a conversation. Timestamp is nil only
// for legacy turns persisted without one.
type Turn struct {
	Role      Role
	Content   string
	Timestamp *time.Time
}

// NewTurn returns a Turn stamped with at.
func NewTurn(role Role, content string, at time.Time) Turn {
	ts := at
	return Turn{Role: role, Content: content, Timestamp: &ts}
}

// Transcript is the ordered turn sequence owned by one user id.
type Transcript struct {
	Messages []Turn
}

// Len returns the number of turns.
func (t Transcript) Len() int {
	return len(t.Messages)
}

// Append returns a copy of t with turns added at the end.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make([]Turn, 0, len(t.Messages)+len(turns))
	out = append(out, t.Messages...)
	out = append(out, turns...)
	return Transcript{Messages: out}
}

// ChatMessages converts the transcript to the completion provider shape.
func (t Transcript) ChatMessages() []ChatMessage {
	msgs := make([]ChatMessage, 0, len(t.Messages))
	for _, m := range t.Messages {
		msgs = append(msgs, ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return msgs
}
