// Package llmtest provides a scripted llm.Chat for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/comigor/movieagent/internal/llm"
)

// Reply is one canned answer; Err takes precedence over Text.
type Reply struct {
	Text string
	Err  error
}

// Scripted answers Complete calls from a queue and records every request.
type Scripted struct {
	mu       sync.Mutex
	replies  []Reply
	Requests []llm.Request
}

var _ llm.Chat = (*Scripted)(nil)

// New returns a Scripted chat that will answer with replies in order.
func New(replies ...Reply) *Scripted {
	return &Scripted{replies: replies}
}

// Complete pops the next reply. It panics when the script is exhausted so a
// test notices an unexpected extra call.
func (s *Scripted) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)
	if len(s.replies) == 0 {
		panic("llmtest: no more replies configured")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return "", r.Err
	}
	return r.Text, nil
}

// Calls returns how many requests were made.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}
