package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	backupScope string
	backupNote  string
)

func init() {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list, and prune snapshots",
		Long: `Snapshots are immutable point-in-time captures of one or both scopes.
One is taken automatically before every edit; the backup subcommands manage
them directly.`,
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Capture the current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupCreate()
		},
	}
	createCmd.Flags().StringVar(&backupScope, "scope", "all", "Scope to capture (user, system, all)")
	createCmd.Flags().StringVar(&backupNote, "note", "", "Note stored with the snapshot")

	cmd.AddCommand(
		createCmd,
		&cobra.Command{
			Use:   "list",
			Short: "List snapshots, newest first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackupList()
			},
		},
		&cobra.Command{
			Use:   "prune",
			Short: "Apply the retention policy",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackupPrune()
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete one snapshot",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runBackupDelete(args[0])
			},
		},
	)
	rootCmd.AddCommand(cmd)
}

func runBackupCreate() error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	scopes, err := selectedScopes(backupScope)
	if err != nil {
		return err
	}
	info, err := ctl.Snapshot(scopes, backupNote)
	if err != nil {
		return err
	}
	printInfo("snapshot %s created\n", info.ID)
	return nil
}

func runBackupList() error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	infos, err := ctl.ListSnapshots()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(infos)
	}
	if len(infos) == 0 {
		printInfo("no snapshots\n")
		return nil
	}
	for _, info := range infos {
		scopes := make([]string, 0, len(info.Scopes))
		for _, s := range info.Scopes {
			scopes = append(scopes, s.String())
		}
		line := fmt.Sprintf("%s  %s  %v", info.ID, info.CreatedAt.Format("2006-01-02 15:04:05"), scopes)
		if info.Note != "" {
			line += "  " + render(dimStyle, info.Note)
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}

func runBackupPrune() error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	removed, err := ctl.PruneSnapshots()
	if err != nil {
		return err
	}
	printInfo("pruned %d snapshot(s)\n", removed)
	return nil
}

func runBackupDelete(id string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	if err := ctl.DeleteSnapshot(id); err != nil {
		return err
	}
	printInfo("deleted snapshot %s\n", id)
	return nil
}
