package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Provision the host",
	Long: `Apply runs every step in order and makes changes to the host.

Steps already in the desired state are left alone. A failing step stops the
run unless it is best-effort; restarts queued before the failure are dropped.

Use --dry-run to check every step without making changes.`,
	RunE: runApply,
}

var (
	applyDryRun      bool
	applyMetricsFile string
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show what would be done without making changes")
	applyCmd.Flags().StringVar(&applyMetricsFile, "metrics-file", "", "Write Prometheus metrics to this node_exporter textfile")
}

func runApply(cmd *cobra.Command, _ []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	opts := options()
	opts.MetricsFile = applyMetricsFile

	result, err := client.Apply(cmd.Context(), opts, applyDryRun)
	if result != nil {
		client.PrintResult(result)
	}
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	if result != nil && !result.Success() {
		return errors.New("some steps failed")
	}
	return nil
}
