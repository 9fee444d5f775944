package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"

	"github.com/comigor/movieagent/internal/conversation"
	"github.com/comigor/movieagent/internal/llm"
	"github.com/comigor/movieagent/internal/movies"
	"github.com/comigor/movieagent/internal/preferences"
	"github.com/comigor/movieagent/internal/tmdb"
)

type mockLLM struct {
	calls    []openai.ChatCompletionResponse
	err      error
	requests []openai.ChatCompletionRequest
}

func (m *mockLLM) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	m.requests = append(m.requests, r)
	if m.err != nil {
		return openai.ChatCompletionResponse{}, m.err
	}
	if len(m.calls) == 0 {
		panic("mockLLM: no more responses configured for request: " + r.Messages[0].Content)
	}
	resp := m.calls[0]
	m.calls = m.calls[1:]
	return resp, nil
}

func reply(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: content}}}}
}

// recorder logs the order in which the recommendation pipeline is called.
type recorder struct {
	steps   []string
	records []movies.Record
	prefs   preferences.Preferences
}

func (r *recorder) Extract(_ context.Context, message string) preferences.Preferences {
	r.steps = append(r.steps, "extract")
	return preferences.FromQuery(message)
}

func (r *recorder) Find(_ context.Context, prefs preferences.Preferences) []movies.Record {
	r.steps = append(r.steps, "find")
	r.prefs = prefs
	return r.records
}

var testOptions = Options{
	SystemPrompt:    "You are a movie assistant.",
	Temperature:     0.7,
	MaxTokens:       1000,
	RetainHistory:   true,
	MaxHistoryTurns: 10,
}

func TestClassify(t *testing.T) {
	require.Equal(t, IntentRecommend, Classify("Can you suggest a movie?"))
	require.Equal(t, IntentChat, Classify("How are you today?"))
	require.Equal(t, IntentRecommend, Classify("I'm LOOKING FOR a thriller"))
	require.Equal(t, IntentRecommend, Classify("Find me something"))
	require.Equal(t, IntentRecommend, Classify("I don't recommend you go outside"))
	require.Equal(t, IntentChat, Classify(""))
}

// TestAgentProcess_ChatRespondsDirectly tests the general conversation path.
func TestAgentProcess_ChatRespondsDirectly(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{reply("I'm great, thanks!")}}
	rec := &recorder{}
	a := New(llm.NewChat(mock, "llama"), rec, rec, testOptions)

	history := conversation.History{}.Append(
		conversation.Message{Role: conversation.RoleUser, Content: "Hello"},
		conversation.Message{Role: conversation.RoleAssistant, Content: "Hi there"},
	)

	turn, err := a.Process(context.Background(), history, "How are you today?")
	require.NoError(t, err)
	require.Equal(t, IntentChat, turn.Intent)
	require.Equal(t, "I'm great, thanks!", turn.Reply)
	require.Empty(t, rec.steps, "chat turns must not touch the recommendation pipeline")

	require.Len(t, mock.requests, 1)
	msgs := mock.requests[0].Messages
	require.Len(t, msgs, 4)
	require.Equal(t, openai.ChatMessageRoleSystem, msgs[0].Role)
	require.Equal(t, "Hello", msgs[1].Content)
	require.Equal(t, "How are you today?", msgs[3].Content)
	require.InDelta(t, 0.7, mock.requests[0].Temperature, 0.0001)
	require.Equal(t, 1000, mock.requests[0].MaxTokens)

	require.Len(t, turn.History, 4)
	require.Equal(t, conversation.Message{Role: conversation.RoleAssistant, Content: "I'm great, thanks!"}, turn.History[3])
	require.Len(t, history, 2, "caller history is not mutated")
}

func TestAgentProcess_ChatLLMErrorApologises(t *testing.T) {
	a := New(llm.NewChat(&mockLLM{err: context.DeadlineExceeded}, "llama"), &recorder{}, &recorder{}, testOptions)

	turn, err := a.Process(context.Background(), nil, "hi")
	require.NoError(t, err)
	require.Equal(t, ApologyReply, turn.Reply)
}

func TestAgentProcess_RecommendExtractsBeforeLookup(t *testing.T) {
	rec := &recorder{records: []movies.Record{{Title: "Alien", Year: "1979", Rating: 8.1, Genres: []string{"Horror"}}}}
	a := New(llm.NewChat(&mockLLM{}, "llama"), rec, rec, testOptions)

	turn, err := a.Process(context.Background(), nil, "Can you suggest a movie?")
	require.NoError(t, err)
	require.Equal(t, IntentRecommend, turn.Intent)
	require.Equal(t, []string{"extract", "find"}, rec.steps)
	require.Equal(t, "Can you suggest a movie?", rec.prefs.Query())
	require.Equal(t, movies.Format(rec.records), turn.Reply)
	require.Len(t, turn.History, 2)
}

func TestAgentProcess_RecommendWithoutResults(t *testing.T) {
	rec := &recorder{}
	a := New(llm.NewChat(&mockLLM{}, "llama"), rec, rec, testOptions)

	turn, err := a.Process(context.Background(), nil, "recommend something obscure")
	require.NoError(t, err)
	require.Equal(t, NoResultsReply, turn.Reply)
}

func TestAgentProcess_WithoutHistoryRetention(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{reply("ok")}}
	opts := testOptions
	opts.RetainHistory = false
	a := New(llm.NewChat(mock, "llama"), &recorder{}, &recorder{}, opts)

	history := conversation.History{{Role: conversation.RoleUser, Content: "earlier"}}
	turn, err := a.Process(context.Background(), history, "hello")
	require.NoError(t, err)
	require.Equal(t, history, turn.History)
	require.Len(t, mock.requests[0].Messages, 2, "system prompt and the new message only")
}

func TestAgentProcess_HistoryWindow(t *testing.T) {
	mock := &mockLLM{calls: []openai.ChatCompletionResponse{reply("ok")}}
	opts := testOptions
	opts.MaxHistoryTurns = 1
	opts.SystemPrompt = ""
	a := New(llm.NewChat(mock, "llama"), &recorder{}, &recorder{}, opts)

	var history conversation.History
	for _, c := range []string{"a", "b", "c"} {
		history = history.Append(
			conversation.Message{Role: conversation.RoleUser, Content: c},
			conversation.Message{Role: conversation.RoleAssistant, Content: strings.ToUpper(c)},
		)
	}
	_, err := a.Process(context.Background(), history, "hello")
	require.NoError(t, err)

	msgs := mock.requests[0].Messages
	require.Len(t, msgs, 3)
	require.Equal(t, "c", msgs[0].Content)
	require.Equal(t, "C", msgs[1].Content)
}

func TestAgentProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := New(llm.NewChat(&mockLLM{}, "llama"), &recorder{}, &recorder{}, testOptions)

	_, err := a.Process(ctx, nil, "hi")
	require.ErrorIs(t, err, context.Canceled)
}

// TestAgentProcess_SpaceAdventureEndToEnd wires the real extractor and lookup
// against a fake TMDB server.
func TestAgentProcess_SpaceAdventureEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search/movie":
			if r.URL.Query().Get("query") != "space adventure" {
				t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
			}
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":11},{"id":1893}]}`))
		case "/movie/11":
			_, _ = w.Write([]byte(`{"id":11,"title":"Star Wars","release_date":"1977-05-25","overview":"Princess Leia is captured.","vote_average":8.2,"genres":[{"name":"Adventure"},{"name":"Action"}]}`))
		case "/movie/1893":
			_, _ = w.Write([]byte(`{"id":1893,"title":"Star Wars: Episode I","release_date":"","overview":"Jedi Knights.","vote_average":6.5,"genres":[{"name":"Science Fiction"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	require.NoError(t, err)

	mock := &mockLLM{calls: []openai.ChatCompletionResponse{reply(`{"query":"space adventure","genres":["Adventure"]}`)}}
	chat := llm.NewChat(mock, "llama")
	a := New(chat, preferences.NewExtractor(chat), movies.NewLookup(client), testOptions)

	turn, err := a.Process(context.Background(), nil, "I'm looking for a space adventure")
	require.NoError(t, err)
	require.Len(t, turn.Records, 2)

	require.Equal(t, 2, strings.Count(turn.Reply, "🎬 "))
	require.Contains(t, turn.Reply, "🎬 Star Wars (1977)\n⭐ Rating: 8.2/10\n📝 Princess Leia is captured....\n🎭 Genres: Adventure, Action\n\n")
	require.Contains(t, turn.Reply, "🎬 Star Wars: Episode I (N/A)\n⭐ Rating: 6.5/10\n📝 Jedi Knights....\n🎭 Genres: Science Fiction\n\n")
	require.Less(t, strings.Index(turn.Reply, "Star Wars (1977)"), strings.Index(turn.Reply, "Episode I"))
}

func TestAgentProcess_LookupFailureEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	require.NoError(t, err)

	chat := llm.NewChat(&mockLLM{err: errors.New("llm down")}, "llama")
	a := New(chat, preferences.NewExtractor(chat), movies.NewLookup(client), testOptions)

	turn, err := a.Process(context.Background(), nil, "recommend a comedy")
	require.NoError(t, err)
	require.Equal(t, NoResultsReply, turn.Reply)
	require.Empty(t, turn.Records)
}
