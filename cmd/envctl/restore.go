package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newRestoreCmd())
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <snapshot-id>",
		Short: "Restore a snapshot over the live registry",
		Long: `The restore command rewrites the captured scopes of a snapshot. The
pre-restore state is snapshotted first, so a restore can itself be restored.

Example:
  envctl backup list
  envctl restore 20260831T120000Z-1a2b3c4d`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(args[0])
		},
	}
}

func runRestore(id string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	if err := ctl.Restore(id); err != nil {
		return err
	}
	printInfo("restored snapshot %s\n", id)
	return nil
}
