package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/winenv/envkit/pkg/types"
)

var (
	setScope  string
	setKind   string
	setCreate bool
)

func init() {
	cmd := newSetCmd()
	cmd.Flags().StringVar(&setScope, "scope", "user", "Scope to write (user, system)")
	cmd.Flags().StringVar(&setKind, "kind", "", "Variable kind (plain, pathlike); inferred from the name when empty")
	cmd.Flags().BoolVar(&setCreate, "create", true, "Create the variable if it does not exist")
	rootCmd.AddCommand(cmd)
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Create or update an environment variable",
		Long: `The set command writes one variable. System scope requires elevation.

Example:
  envctl set GOPATH "C:\Users\me\go"
  envctl set JAVA_HOME "C:\Java\jdk-21" --scope system
  envctl set MYTOOL_DIRS "C:\a;C:\b" --kind pathlike`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(args[0], args[1])
		},
	}
}

func runSet(name, value string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	scope, err := types.ParseScope(setScope)
	if err != nil {
		return err
	}
	kind := types.DetectKind(name)
	if setKind != "" {
		kind, err = types.ParseKind(setKind)
		if err != nil {
			return err
		}
	}

	err = ctl.Update(scope, name, value)
	if errors.Is(err, types.ErrNotFound) && setCreate {
		err = ctl.Add(scope, name, value, kind)
	}
	if err != nil {
		return err
	}
	printInfo("set %s (%s scope)\n", name, scope)
	return nil
}
