package history

import "time"

// Message represents a single conversational message persisted in the transcript store.
type Message struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary describes one stored session.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	Messages     int       `json:"messages"`
	LastActivity time.Time `json:"last_activity"`
}
