package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/comigor/movieagent/internal/logger"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "movieagent",
		Short:         "Conversational movie recommendation assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := logger.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
				return err
			}
			if shouldSkipValidation(cmd) {
				return nil
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatCommand(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./config.yaml or $CONFIG_PATH)")

	rootCmd.AddCommand(newChatCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newMCPCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}

func shouldSkipValidation(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipValidation"] == "true" {
			return true
		}
	}
	return false
}
