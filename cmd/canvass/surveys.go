package main

import (
	"github.com/aretw0/canvass/internal/cli"
	"github.com/spf13/cobra"
)

var surveysCmd = &cobra.Command{
	Use:   "surveys",
	Short: "Inspect the survey catalog",
}

var surveysLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available surveys",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := cli.LoadCatalog(cmd.Context(), loadConfig(cmd).SurveysDir)
		if err != nil {
			return err
		}
		return cli.PrintSurveys(cmd.OutOrStdout(), cat)
	},
}

var surveysShowCmd = &cobra.Command{
	Use:   "show <survey>",
	Short: "Print a survey definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := cli.LoadCatalog(cmd.Context(), loadConfig(cmd).SurveysDir)
		if err != nil {
			return err
		}
		survey, err := cat.Survey(args[0])
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return cli.PrintSurvey(cmd.OutOrStdout(), survey, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(surveysCmd)
	surveysCmd.AddCommand(surveysLsCmd)
	surveysCmd.AddCommand(surveysShowCmd)
	surveysShowCmd.Flags().Bool("json", false, "Print JSON instead of YAML")
}
