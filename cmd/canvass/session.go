package main

import (
	"github.com/aretw0/canvass/internal/cli"
	"github.com/aretw0/canvass/pkg/ports"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, and remove sessions in the configured store. Sessions are addressed as survey/session.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls [survey]",
	Short: "List stored sessions",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			survey := ""
			if len(args) == 1 {
				survey = args[0]
			}
			return cli.PrintSessions(cmd.Context(), cmd.OutOrStdout(), store, survey)
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <survey/session>",
	Short: "Print the state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			return cli.InspectSession(cmd.Context(), cmd.OutOrStdout(), store, args[0])
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <survey/session>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(store ports.SessionStore) error {
			return cli.RemoveSessions(cmd.Context(), cmd.OutOrStdout(), store, args)
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

// withStore opens the configured store with its at-rest middleware, so sealed sessions read back in clear.
func withStore(cmd *cobra.Command, fn func(ports.SessionStore) error) error {
	cfg := loadConfig(cmd)
	cfg.Metrics = false
	logger, err := cli.NewLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	stack, err := cli.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer stack.Close()
	return fn(stack.Store)
}
