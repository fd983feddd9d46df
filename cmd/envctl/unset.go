package main

import (
	"github.com/spf13/cobra"

	"github.com/winenv/envkit/pkg/types"
)

var unsetScope string

func init() {
	cmd := newUnsetCmd()
	cmd.Flags().StringVar(&unsetScope, "scope", "user", "Scope to write (user, system)")
	rootCmd.AddCommand(cmd)
}

func newUnsetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <name>",
		Short: "Delete an environment variable",
		Long: `The unset command removes one variable. A snapshot of the scope is
taken first, so the deletion is recoverable with restore.

Example:
  envctl unset OLD_TOOL_HOME
  envctl unset TEMP_OVERRIDE --scope system`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUnset(args[0])
		},
	}
}

func runUnset(name string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	scope, err := types.ParseScope(unsetScope)
	if err != nil {
		return err
	}
	if err := ctl.Delete(scope, name); err != nil {
		return err
	}
	printInfo("deleted %s (%s scope)\n", name, scope)
	return nil
}
