package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what changes stashprov would make",
	Long: `Plan loads the bundle and shows what changes would be made.

This command:
1. Loads and decrypts the environment bundle
2. Compiles the recipe into ordered steps
3. Checks the current host state
4. Shows what would change and which restarts would follow

Use --explain to describe each step and the condition it runs under.`,
	RunE: runPlan,
}

var planExplain bool

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().BoolVar(&planExplain, "explain", false, "Describe every step and when it runs")
}

func runPlan(cmd *cobra.Command, _ []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	plan, err := client.Plan(cmd.Context(), options())
	if err != nil {
		return fmt.Errorf("plan failed: %w", err)
	}
	client.PrintPlan(plan, planExplain)
	return nil
}
