package main

import (
	"github.com/spf13/cobra"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt [item.json]",
	Short: "Print a decrypted data bag item",
	Long: `Decrypt prints the data bag item as plain JSON. Versions 1 to 3 of the
encrypted item format are supported.

The item defaults to --bundle and the secret to --secret.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecrypt,
}

func init() {
	rootCmd.AddCommand(decryptCmd)
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	item := bundlePath
	if len(args) == 1 {
		item = args[0]
	}
	return client.Decrypt(item, secretPath)
}
