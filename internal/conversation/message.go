// Package conversation holds the role-tagged message history that the caller
// owns and threads through each agent turn.
package conversation

import "strings"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizeRole lowercases a role and maps provider aliases onto the three
// roles the agent understands. Unknown roles become user.
func NormalizeRole(role string) string {
	switch r := strings.ToLower(strings.TrimSpace(role)); r {
	case RoleSystem, RoleAssistant:
		return r
	case "model", "bot":
		return RoleAssistant
	default:
		return RoleUser
	}
}

// History is an ordered, append-only sequence of messages.
type History []Message

// Append returns a new History with the given turns added. The receiver's
// backing array is never written to, so callers can keep earlier snapshots.
func (h History) Append(msgs ...Message) History {
	out := make(History, 0, len(h)+len(msgs))
	out = append(out, h...)
	for _, m := range msgs {
		out = append(out, Message{Role: NormalizeRole(m.Role), Content: m.Content})
	}
	return out
}

// Window returns the trailing turns*2 messages (one user and one assistant
// message per turn). turns <= 0 returns everything.
func (h History) Window(turns int) History {
	if turns <= 0 || len(h) <= turns*2 {
		return h
	}
	return h[len(h)-turns*2:]
}
