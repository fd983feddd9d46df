package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winenv/envkit/pkg/types"
)

var getScope string

func init() {
	cmd := newGetCmd()
	cmd.Flags().StringVar(&getScope, "scope", "user", "Scope to read (user, system)")
	rootCmd.AddCommand(cmd)
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print one environment variable",
		Long: `The get command prints a single variable's value.

Example:
  envctl get GOPATH
  envctl get Path --scope system`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args[0])
		},
	}
}

func runGet(name string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	scope, err := types.ParseScope(getScope)
	if err != nil {
		return err
	}
	v, err := ctl.Get(scope, name)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(v)
	}
	fmt.Fprintln(os.Stdout, v.Value)
	return nil
}
