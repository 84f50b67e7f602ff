package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/aretw0/canvass"
	"github.com/aretw0/canvass/internal/cli"
	"github.com/aretw0/canvass/internal/presentation/tui"
	"github.com/aretw0/canvass/pkg/runner"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var takeCmd = &cobra.Command{
	Use:   "take <survey> [session-id]",
	Short: "Take a survey in the terminal",
	Long: `Asks the survey's questions one at a time. Answers are saved after each
question, so running the command again with the same session id resumes.
Without a session id a new one is generated and printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")
		noBanner, _ := cmd.Flags().GetBool("no-banner")

		logger, err := cli.NewLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		stack, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		surveyID := args[0]
		sessionID := uuid.NewString()
		if len(args) == 2 {
			sessionID = args[1]
		}

		var handler runner.IOHandler
		if asJSON {
			handler = runner.NewJSONHandler(os.Stdin, os.Stdout)
		} else {
			var opts []runner.TextHandlerOption
			if tui.IsInteractive(os.Stdout) {
				if !noBanner {
					tui.PrintBanner(os.Stdout, strings.TrimSpace(canvass.Version))
				}
				opts = append(opts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
			}
			handler = runner.NewTextHandler(os.Stdin, os.Stdout, opts...)
		}

		r := runner.NewRunner(runner.WithInputHandler(handler), runner.WithLogger(logger))
		step, err := r.Run(ctx, stack.Engine, surveyID, sessionID)
		if err != nil {
			if step != nil && ctx.Err() != nil {
				fmt.Fprintf(os.Stderr, "\nInterrupted. Resume with: canvass take %s %s\n", surveyID, sessionID)
				return nil
			}
			return err
		}
		if !asJSON && !step.Complete() {
			fmt.Fprintf(os.Stderr, "\nSession saved. Resume with: canvass take %s %s\n", surveyID, sessionID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(takeCmd)
	takeCmd.Flags().Bool("json", false, "Exchange JSON lines instead of text")
	takeCmd.Flags().Bool("no-banner", false, "Do not print the banner")
}
