package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the bundle and attributes without touching a host",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	result, err := client.Validate(cmd.Context(), options())
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	client.PrintValidation(result)
	if !result.Valid() {
		return errors.New("configuration is invalid")
	}
	return nil
}
