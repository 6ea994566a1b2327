package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fragmede/purse/internal/router"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	APIURL     string
	Verbose    bool
	// Open is an app path to show first, e.g. /password-reset/TOKEN.
	Open string
}

// NewRootCommand creates the purse command. Run bare, it starts the TUI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "purse",
		Short:         "Purse - a terminal wallet",
		Long:          "Check balances, move money and manage beneficiaries from the terminal.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOpenPath(opts.Open); err != nil {
				return err
			}
			return runTUI(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Open, "open", "", "app path to open first, e.g. /password-reset/TOKEN")

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/purse/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "wallet API base URL")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewBalancesCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))

	return cmd
}

// checkOpenPath rejects an --open value that names no route.
func checkOpenPath(path string) error {
	if path == "" {
		return nil
	}
	if _, _, ok := router.Match(path); ok {
		return nil
	}
	var known []string
	for _, r := range router.Routes() {
		known = append(known, r.Path)
	}
	return fmt.Errorf("unknown path %q (known: %s)", path, strings.Join(known, ", "))
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
