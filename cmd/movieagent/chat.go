package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/comigor/movieagent/internal/logger"
	"github.com/comigor/movieagent/internal/session"
)

const (
	goodbyeMessage    = "Goodbye! Hope you found a great movie to watch!"
	terminatedMessage = "Session terminated by user."
)

var exitKeywords = map[string]bool{"quit": true, "exit": true, "bye": true}

func newChatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive recommendation session (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatCommand(cmd, ctx)
		},
	}
}

func runChatCommand(cmd *cobra.Command, ctx *commandContext) error {
	comps, err := ctx.build()
	if err != nil {
		return err
	}
	defer comps.store.Close()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	sess := session.New(comps.agent, comps.store)
	logger.L.Debug("chat session started", "session", sess.ID)

	out := cmd.OutOrStdout()
	return runChat(sigCtx, cmd.InOrStdin(), out, sess, logger.IsTerminal(out))
}

type printer struct {
	w        io.Writer
	colorize bool
}

func (p printer) line(colors text.Colors, format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if p.colorize && len(colors) > 0 {
		s = colors.Sprint(s)
	}
	fmt.Fprintln(p.w, s)
}

func (p printer) banner() {
	p.line(text.Colors{text.Bold, text.FgBlue}, "🎬 Movie Recommendation Assistant")
	p.line(nil, "")
	p.line(nil, "Welcome to your personal movie recommendation assistant!")
	p.line(nil, "Tell me what kind of movies you like, and I'll help you discover your next favorite film.")
	p.line(nil, "")
	p.line(text.Colors{text.Bold}, "How to use:")
	p.line(nil, "1. Tell me what kind of movies you like")
	p.line(nil, "2. Share your preferences (genres, actors, etc.)")
	p.line(nil, "3. Get personalized recommendations")
	p.line(nil, "4. Type 'quit' or 'exit' to end the conversation")
}

func (p printer) prompt() {
	s := "You: "
	if p.colorize {
		s = text.Colors{text.Bold, text.FgBlue}.Sprint("You") + ": "
	}
	fmt.Fprint(p.w, "\n"+s)
}

// runChat reads one line per turn until an exit keyword, EOF or cancellation.
func runChat(ctx context.Context, in io.Reader, out io.Writer, sess *session.Session, colorize bool) error {
	p := printer{w: out, colorize: colorize}
	p.banner()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		p.prompt()

		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			p.line(text.Colors{text.Bold, text.FgRed}, terminatedMessage)
			return nil
		case err := <-readErr:
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			p.line(text.Colors{text.Bold, text.FgGreen}, goodbyeMessage)
			return nil
		case input = <-lines:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if exitKeywords[strings.ToLower(input)] {
			p.line(text.Colors{text.Bold, text.FgGreen}, "\n"+goodbyeMessage)
			return nil
		}

		turn, err := sess.Send(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				p.line(text.Colors{text.Bold, text.FgRed}, "\n"+terminatedMessage)
				return nil
			}
			p.line(text.Colors{text.Bold, text.FgRed}, "An error occurred: %v", err)
			continue
		}

		p.line(text.Colors{text.Bold, text.FgYellow}, "\nAssistant:")
		p.line(nil, "%s", strings.TrimRight(turn.Reply, "\n"))
	}
}
