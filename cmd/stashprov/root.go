package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/stashprov/internal/adapters/logging"
	"github.com/felixgeelhaar/stashprov/internal/adapters/remote"
	"github.com/felixgeelhaar/stashprov/internal/app"
	"github.com/felixgeelhaar/stashprov/internal/domain/config"
	"github.com/felixgeelhaar/stashprov/internal/domain/execution"
	"github.com/felixgeelhaar/stashprov/internal/ports"
)

// sshPasswordEnv carries the SSH password so it never appears in argv.
const sshPasswordEnv = "STASHPROV_SSH_PASSWORD"

var (
	// Global flags
	bundlePath     string
	secretPath     string
	attributesPath string
	environment    string
	verbose        bool
	logLevel       string
	logJSON        bool
	quiet          bool

	sshHost        string
	sshPort        int
	sshUser        string
	sshKey         string
	sshKnownHosts  string
	sshInsecure    bool
	sshDialTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "stashprov",
	Short: "Provision Atlassian Stash on a host",
	Long: `Stashprov installs and configures Atlassian Stash from an environment bundle.

Each step is checked before it is applied, so re-running converges the host
without repeating work. Configuration changes restart the service once, after
every step has run.`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&bundlePath, "bundle", "b", "stash.json", "environment bundle: data bag item (.json), .yaml or .toml")
	flags.StringVar(&secretPath, "secret", "", "data bag secret file for encrypted bundles")
	flags.StringVarP(&attributesPath, "attributes", "a", "", "node attributes YAML (defaults apply when empty)")
	flags.StringVarP(&environment, "environment", "e", "", "environment to provision (default: attributes environment)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.BoolVar(&logJSON, "log-json", false, "log as JSON lines")
	flags.BoolVarP(&quiet, "quiet", "q", false, "disable logging")

	flags.StringVar(&sshHost, "ssh-host", "", "provision this host over SSH instead of the local machine")
	flags.IntVar(&sshPort, "ssh-port", 22, "SSH port")
	flags.StringVar(&sshUser, "ssh-user", "root", "SSH user")
	flags.StringVar(&sshKey, "ssh-key", "", "SSH private key file (password from "+sshPasswordEnv+" otherwise)")
	flags.StringVar(&sshKnownHosts, "ssh-known-hosts", "", "known_hosts file used to verify the host key")
	flags.BoolVar(&sshInsecure, "ssh-insecure", false, "skip host key verification")
	flags.DurationVar(&sshDialTimeout, "ssh-timeout", 10*time.Second, "SSH connect timeout")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// stashprovClient is the part of the application the commands drive.
type stashprovClient interface {
	Plan(context.Context, app.Options) (*execution.Plan, error)
	PrintPlan(*execution.Plan, bool)
	Apply(context.Context, app.Options, bool) (*execution.RunResult, error)
	PrintResult(*execution.RunResult)
	Validate(context.Context, app.Options) (*app.ValidationResult, error)
	PrintValidation(*app.ValidationResult)
	Decrypt(string, string) error
}

var newStashprov = func(out io.Writer, log ports.Logger) stashprovClient {
	return app.New(out, log)
}

// newClient builds the application with the logger selected by the flags.
func newClient(cmd *cobra.Command) (stashprovClient, error) {
	level := logLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, logJSON, quiet, logging.WithOutput(cmd.ErrOrStderr()))
	if err != nil {
		return nil, err
	}
	return newStashprov(cmd.OutOrStdout(), log), nil
}

// options collects the global flags.
func options() app.Options {
	opts := app.Options{
		BundlePath:     bundlePath,
		SecretPath:     secretPath,
		AttributesPath: attributesPath,
		Environment:    environment,
	}
	if sshHost != "" {
		opts.Remote = &remote.Config{
			Host:                sshHost,
			Port:                sshPort,
			User:                sshUser,
			KeyFile:             sshKey,
			Password:            os.Getenv(sshPasswordEnv),
			KnownHostsFile:      sshKnownHosts,
			InsecureSkipHostKey: sshInsecure,
			DialTimeout:         sshDialTimeout,
		}
	}
	return opts
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) && list.Len() > 1 {
		msg := fmt.Sprintf("%d configuration problems:", list.Len())
		for _, ue := range list.Errors() {
			msg += "\n  - " + formatError(ue)
		}
		return msg
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		msg := userErr.Message
		if userErr.Context != "" {
			msg += fmt.Sprintf(" (at %s)", userErr.Context)
		}
		if userErr.Suggestion != "" {
			msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
		}
		if verbose && userErr.Underlying != nil {
			msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
		}
		return msg
	}
	return err.Error()
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("bundle", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml", "yml", "toml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("attributes", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
}
