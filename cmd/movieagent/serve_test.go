package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/movieagent/internal/agent"
	"github.com/comigor/movieagent/internal/conversation"
	"github.com/comigor/movieagent/internal/llm/llmtest"
	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/internal/movies"
	"github.com/comigor/movieagent/internal/preferences"
	"github.com/comigor/movieagent/internal/session"
)

type noopExtractor struct{}

func (noopExtractor) Extract(_ context.Context, msg string) preferences.Preferences {
	return preferences.FromQuery(msg)
}

type noopFinder struct{}

func (noopFinder) Find(context.Context, preferences.Preferences) []movies.Record { return nil }

func TestInferenceHandler_SessionRoundTrip(t *testing.T) {
	chat := llmtest.New(llmtest.Reply{Text: "Hi there!"}, llmtest.Reply{Text: "Still here."})
	a := agent.New(chat, noopExtractor{}, noopFinder{}, agent.Options{RetainHistory: true})
	mgr := session.NewManager(a, nil)
	h := newInferenceHandler(mgr)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hi there!", rec.Body.String())
	id := rec.Header().Get(sessionHeader)
	require.NotEmpty(t, id)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("are you there?"))
	req.Header.Set(sessionHeader, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "Still here.", rec.Body.String())
	require.Equal(t, id, rec.Header().Get(sessionHeader))
	require.Equal(t, 1, mgr.Len())

	// second chat call carries the first turn
	msgs := chat.Requests[1].Messages
	require.Equal(t, []conversation.Message{
		{Role: conversation.RoleUser, Content: "hello"},
		{Role: conversation.RoleAssistant, Content: "Hi there!"},
		{Role: conversation.RoleUser, Content: "are you there?"},
	}, msgs)
}

func TestInferenceHandler_NoResultsReply(t *testing.T) {
	a := agent.New(llmtest.New(), noopExtractor{}, noopFinder{}, agent.Options{})
	h := newInferenceHandler(session.NewManager(a, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("recommend a heist movie")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, agent.NoResultsReply, rec.Body.String())
}

func TestInferenceHandler_RejectsBadRequests(t *testing.T) {
	h := newInferenceHandler(session.NewManager(agent.New(llmtest.New(), noopExtractor{}, noopFinder{}, agent.Options{}), nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInferenceHandler_DoesNotLogMessageAtInfo(t *testing.T) {
	var logs bytes.Buffer
	prev := logger.L
	require.NoError(t, logger.Setup("info", "json", &logs))
	t.Cleanup(func() { logger.L = prev })

	a := agent.New(llmtest.New(llmtest.Reply{Text: "ok"}), noopExtractor{}, noopFinder{}, agent.Options{})
	h := newInferenceHandler(session.NewManager(a, nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("my secret plans for tonight")))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Contains(t, logs.String(), `"bytes":27`)
	require.NotContains(t, logs.String(), "secret plans")
}
