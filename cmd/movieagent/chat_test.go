package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/comigor/movieagent/internal/agent"
	"github.com/comigor/movieagent/internal/conversation"
	"github.com/comigor/movieagent/internal/session"
)

type echoProcessor struct {
	seen []string
	errs map[string]error
}

func (p *echoProcessor) Process(_ context.Context, h conversation.History, message string) (agent.Turn, error) {
	p.seen = append(p.seen, message)
	if err := p.errs[message]; err != nil {
		return agent.Turn{}, err
	}
	return agent.Turn{Reply: "echo: " + message, History: h}, nil
}

func TestRunChat_ExitKeyword(t *testing.T) {
	proc := &echoProcessor{}
	var out bytes.Buffer

	err := runChat(context.Background(), strings.NewReader("hello\n\n   \nBYE\nnever sent\n"), &out, session.New(proc, nil), false)
	require.NoError(t, err)

	require.Equal(t, []string{"hello"}, proc.seen)
	s := out.String()
	require.Contains(t, s, "Movie Recommendation Assistant")
	require.Contains(t, s, "Assistant:\necho: hello")
	require.Contains(t, s, goodbyeMessage)
	require.NotContains(t, s, "never sent")
	require.NotContains(t, s, "\x1b[")
}

func TestRunChat_EOFSaysGoodbye(t *testing.T) {
	proc := &echoProcessor{}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), strings.NewReader("first\nsecond"), &out, session.New(proc, nil), false))
	require.Equal(t, []string{"first", "second"}, proc.seen)
	require.True(t, strings.HasSuffix(strings.TrimSpace(out.String()), goodbyeMessage))
}

func TestRunChat_ErrorDoesNotEndSession(t *testing.T) {
	proc := &echoProcessor{errs: map[string]error{"broken": errors.New("state machine fault")}}
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), strings.NewReader("broken\nworks\nquit\n"), &out, session.New(proc, nil), false))
	require.Equal(t, []string{"broken", "works"}, proc.seen)
	require.Contains(t, out.String(), "An error occurred: state machine fault")
	require.Contains(t, out.String(), "echo: works")
}

func TestRunChat_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a reader that never returns keeps the scanner goroutine parked
	pr := blockingReader{}
	var out bytes.Buffer

	require.NoError(t, runChat(ctx, pr, &out, session.New(&echoProcessor{}, nil), false))
	require.Contains(t, out.String(), terminatedMessage)
}

type blockingReader struct{}

func (blockingReader) Read([]byte) (int, error) { select {} }
