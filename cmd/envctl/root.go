package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winenv/envkit/internal/logging"
	"github.com/winenv/envkit/pkg/env"
)

var (
	// Global flags
	verbosity int
	quiet     bool
	jsonOut   bool
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "envctl",
	Short: "Manage Windows environment variables safely",
	Long: `envctl reads, edits, imports, and exports the environment variables held
in the System and User registry scopes. Every edit is validated first,
snapshotted before it lands, and recoverable through backups.`,
	Version: "0.1.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			verbosity = 0
		}
		logging.Setup(verbosity, os.Stderr)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newController opens the live registry and wires the engine with the
// user's configuration file (if any) applied over the defaults.
func newController() (*env.Controller, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return env.Open(cfg)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
