package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/movieagent/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "history [session-id]",
		Short:       "List stored sessions or print one session's transcript",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipValidation": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.History.DBPath == "" {
				return fmt.Errorf("no transcript store configured; set history.db_path")
			}
			store := history.New(cfg.History.DBPath)
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(out, renderSessions(store.Sessions()))
				return nil
			}
			msgs := store.List(args[0])
			if len(msgs) == 0 {
				return fmt.Errorf("session %s not found", args[0])
			}
			fmt.Fprintln(out, renderTranscript(msgs))
			return nil
		},
	}
}

func renderSessions(sessions []history.SessionSummary) string {
	if len(sessions) == 0 {
		return "No sessions stored."
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{s.SessionID, strconv.Itoa(s.Messages), formatTime(s.LastActivity)})
	}
	return renderTable([]string{"Session", "Messages", "Last activity"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}, nil)
}

func renderTranscript(msgs []history.Message) string {
	rows := make([][]string, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, []string{formatTime(m.CreatedAt), m.Role, m.Content})
	}
	return renderTable([]string{"Time", "Role", "Content"}, rows, nil, map[int]int{2: 80})
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
