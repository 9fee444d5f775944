package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/comigor/movieagent/internal/conversation"
	"github.com/comigor/movieagent/internal/llm"
	"github.com/comigor/movieagent/internal/logger"
)

const (
	extractionTemperature = 0.3
	extractionMaxTokens   = 500
)

// Extractor turns a user message into Preferences.
type Extractor struct {
	chat llm.Chat
}

// NewExtractor creates an Extractor that calls chat.
func NewExtractor(chat llm.Chat) *Extractor {
	return &Extractor{chat: chat}
}

// Prompt builds the single-turn instruction sent to the model.
func Prompt(message string) string {
	return fmt.Sprintf(`Extract movie preferences from this message: %q
Return a JSON object with keys: genres, year_range, keywords, and any other relevant preferences.`, message)
}

// Extract asks the model for preferences. Any API or parse failure falls back
// to using the raw message as the query; the result always carries a query.
func (e *Extractor) Extract(ctx context.Context, message string) Preferences {
	reply, err := e.chat.Complete(ctx, llm.Request{
		Messages:    []conversation.Message{{Role: conversation.RoleUser, Content: Prompt(message)}},
		Temperature: extractionTemperature,
		MaxTokens:   extractionMaxTokens,
	})
	if err != nil {
		logger.L.Warn("preference extraction failed; using message as query", "error", err)
		return FromQuery(message)
	}

	prefs, err := Parse(reply)
	if err != nil {
		logger.L.Debug("preference reply is not a JSON object; using message as query", "error", err, "reply", reply)
		return FromQuery(message)
	}
	if prefs.Query() == "" {
		prefs[KeyQuery] = message
	}
	logger.L.Debug("preferences extracted", "preferences", map[string]any(prefs))
	return prefs
}

// Parse decodes a model reply into Preferences. A single surrounding markdown
// code fence is tolerated; anything that is not a JSON object is an error.
func Parse(reply string) (Preferences, error) {
	body := stripCodeFence(strings.TrimSpace(reply))
	if body == "" {
		return nil, errors.New("empty reply")
	}
	var prefs Preferences
	if err := json.Unmarshal([]byte(body), &prefs); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if prefs == nil {
		return nil, errors.New("decode preferences: null object")
	}
	return prefs, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	// Drop an info string such as "json" on the opening fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
