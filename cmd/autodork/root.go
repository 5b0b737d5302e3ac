package main

import (
	"fmt"
	"os"

	"github.com/nao1215/autodork/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for autodork.
// Running it without a subcommand executes one batch.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autodork",
		Short: "Run search dorks through rotating public proxies",
		Long: `autodork reads search dorks from a file, validates a list of public HTTP
proxies, and runs every dork against the search engine through a random
working proxy and a random User-Agent. Failed attempts are retried with
exponential backoff on a different proxy. The top results of each dork are
written to <results>/<dork>_results.txt.

Inputs (current directory by default):
  dorks.txt       one dork per line
  useragents.txt  one User-Agent per line
  proxies.txt     proxy cache, downloaded on first run

Examples:
  # Run with the default files
  autodork

  # Show proxy errors and retries
  autodork -v

  # Use your own proxy list and a markdown summary
  autodork --proxies my-proxies.txt --summary markdown

  # Generate 50 random User-Agents instead of reading useragents.txt
  autodork --random-ua 50`,
		Version:       getVersion(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBatchCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Display errors with proxies and retries")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: "+config.DefaultConfigFile+" in current or home directory)")

	addBatchFlags(cmd)

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
