package main

import (
	"fmt"

	"github.com/aretw0/canvass/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file-or-dir>...",
	Short: "Check survey definitions",
	Long: `Parses each document and checks ids, question types, options and skip
rules (targets must exist and come later). Directories are also checked as a
whole catalog. Rules that can never fire and questions that can never be
presented are reported as warnings. Defaults to the --surveys directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			dir, _ := cmd.Flags().GetString("surveys")
			if dir == "" {
				return fmt.Errorf("nothing to validate: pass files or directories, or set --surveys")
			}
			args = []string{dir}
		}
		strict, _ := cmd.Flags().GetBool("strict")
		if err := cli.Validate(cmd.Context(), cmd.OutOrStdout(), args, strict); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All surveys are valid.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("strict", false, "Treat lint warnings as errors")
}
