package agent

import (
	"context"
	"fmt"

	"github.com/qmuntal/stateless"

	"github.com/comigor/movieagent/internal/config"
	"github.com/comigor/movieagent/internal/conversation"
	"github.com/comigor/movieagent/internal/llm"
	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/internal/movies"
	"github.com/comigor/movieagent/internal/preferences"
)

// FSM States
type FSMState string

const (
	StateReceived   FSMState = "Received"
	StateExtracting FSMState = "Extracting"
	StateLookingUp  FSMState = "LookingUp"
	StateChatting   FSMState = "Chatting"
	StateReplied    FSMState = "Replied" // Terminal
)

// FSM Triggers
type FSMTrigger string

const (
	TriggerRecommend FSMTrigger = "Recommend"
	TriggerChat      FSMTrigger = "Chat"
	TriggerExtracted FSMTrigger = "Extracted"
	TriggerReplied   FSMTrigger = "Replied"
)

const (
	NoResultsReply = "I couldn't find any movies matching your preferences. Could you try being more specific?"
	ApologyReply   = "I apologize, but I'm having trouble processing your request right now."
)

// Extractor turns a message into preferences; it never fails.
type Extractor interface {
	Extract(ctx context.Context, message string) preferences.Preferences
}

// Finder resolves preferences to at most movies.MaxResults records; it never fails.
type Finder interface {
	Find(ctx context.Context, prefs preferences.Preferences) []movies.Record
}

// Options tunes general chat turns and history handling.
type Options struct {
	SystemPrompt    string
	Temperature     float32
	MaxTokens       int
	RetainHistory   bool
	MaxHistoryTurns int
}

// OptionsFromConfig maps application config onto agent Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		SystemPrompt:    cfg.LLM.SystemPrompt,
		Temperature:     cfg.LLM.Temperature,
		MaxTokens:       cfg.LLM.MaxTokens,
		RetainHistory:   cfg.Agent.RetainHistory,
		MaxHistoryTurns: cfg.Agent.MaxHistoryTurns,
	}
}

// Agent routes each message to the recommendation pipeline or to general chat.
type Agent struct {
	chat      llm.Chat
	extractor Extractor
	finder    Finder
	opts      Options
}

// New creates an Agent.
func New(chat llm.Chat, extractor Extractor, finder Finder, opts Options) *Agent {
	return &Agent{chat: chat, extractor: extractor, finder: finder, opts: opts}
}

// Turn is the outcome of one processed message.
type Turn struct {
	Reply   string
	Intent  Intent
	Records []movies.Record
	// History is the caller's history plus this turn when retention is on,
	// otherwise the caller's history unchanged.
	History conversation.History
}

// Process runs one turn. Extraction, lookup and chat failures are absorbed into
// fixed replies; the returned error only reports cancellation or a state
// machine fault.
func (a *Agent) Process(ctx context.Context, history conversation.History, message string) (Turn, error) {
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	turn := Turn{Intent: Classify(message), History: history}
	var prefs preferences.Preferences

	fsm := stateless.NewStateMachine(StateReceived)

	fsm.Configure(StateReceived).
		Permit(TriggerRecommend, StateExtracting).
		Permit(TriggerChat, StateChatting)

	// Extraction always precedes lookup.
	fsm.Configure(StateExtracting).
		OnEntry(func(ctx context.Context, _ ...any) error {
			logger.L.Debug("FSM: Entering StateExtracting")
			prefs = a.extractor.Extract(ctx, message)
			return fsm.FireCtx(ctx, TriggerExtracted)
		}).
		Permit(TriggerExtracted, StateLookingUp)

	fsm.Configure(StateLookingUp).
		OnEntry(func(ctx context.Context, _ ...any) error {
			logger.L.Debug("FSM: Entering StateLookingUp", "query", prefs.Query())
			turn.Records = a.finder.Find(ctx, prefs)
			if len(turn.Records) == 0 {
				turn.Reply = NoResultsReply
			} else {
				turn.Reply = movies.Format(turn.Records)
			}
			return fsm.FireCtx(ctx, TriggerReplied)
		}).
		Permit(TriggerReplied, StateReplied)

	fsm.Configure(StateChatting).
		OnEntry(func(ctx context.Context, _ ...any) error {
			logger.L.Debug("FSM: Entering StateChatting")
			reply, err := a.chat.Complete(ctx, llm.Request{
				Messages:    a.chatMessages(history, message),
				Temperature: a.opts.Temperature,
				MaxTokens:   a.opts.MaxTokens,
			})
			if err != nil {
				logger.L.Error("LLM call failed", "error", err)
				reply = ApologyReply
			}
			turn.Reply = reply
			return fsm.FireCtx(ctx, TriggerReplied)
		}).
		Permit(TriggerReplied, StateReplied)

	trigger := TriggerChat
	if turn.Intent == IntentRecommend {
		trigger = TriggerRecommend
	}
	if err := fsm.FireCtx(ctx, trigger); err != nil {
		return Turn{}, fmt.Errorf("turn state machine: %w", err)
	}

	state, err := fsm.State(ctx)
	if err != nil {
		return Turn{}, fmt.Errorf("turn state machine: %w", err)
	}
	if state != StateReplied {
		return Turn{}, fmt.Errorf("turn state machine ended in %v", state)
	}
	if err := ctx.Err(); err != nil {
		return Turn{}, err
	}

	if a.opts.RetainHistory {
		turn.History = history.Append(
			conversation.Message{Role: conversation.RoleUser, Content: message},
			conversation.Message{Role: conversation.RoleAssistant, Content: turn.Reply},
		)
	}
	logger.L.Debug("turn processed", "intent", turn.Intent, "records", len(turn.Records))
	return turn, nil
}

func (a *Agent) chatMessages(history conversation.History, message string) []conversation.Message {
	msgs := make([]conversation.Message, 0, len(history)+2)
	if a.opts.SystemPrompt != "" {
		msgs = append(msgs, conversation.Message{Role: conversation.RoleSystem, Content: a.opts.SystemPrompt})
	}
	if a.opts.RetainHistory {
		msgs = append(msgs, history.Window(a.opts.MaxHistoryTurns)...)
	}
	return append(msgs, conversation.Message{Role: conversation.RoleUser, Content: message})
}
