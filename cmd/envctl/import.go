package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winenv/envkit/pkg/env"
	"github.com/winenv/envkit/pkg/types"
)

var (
	importFormat   string
	importPolicy   string
	importDryRun   bool
	importNoBackup bool
)

func init() {
	cmd := newImportCmd()
	cmd.Flags().StringVar(&importFormat, "format", "", "Input format (yaml, json, csv, reg); inferred from the extension when empty")
	cmd.Flags().StringVar(&importPolicy, "on-conflict", "skip", "Conflict policy for existing names (skip, overwrite, fail)")
	cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Decode and validate only; apply nothing")
	cmd.Flags().BoolVar(&importNoBackup, "no-backup", false, "Skip the pre-import snapshot")
	rootCmd.AddCommand(cmd)
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import environment variables from a file",
		Long: `The import command decodes a file into a batch, validates the whole
batch, and applies it atomically with respect to conflicts: under
--on-conflict fail, one existing name rejects everything.

Example:
  envctl import env.yaml
  envctl import team.csv --on-conflict overwrite
  envctl import legacy.reg --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0])
		},
	}
}

func runImport(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var batch *types.ImportBatch
	if importFormat != "" {
		batch, err = env.DecodeBatch(importFormat, data)
	} else {
		batch, err = env.DecodeBatchFile(path, data)
	}
	if err != nil {
		return err
	}
	policy, err := types.ParseConflictPolicy(importPolicy)
	if err != nil {
		return err
	}
	if importDryRun {
		printInfo("decoded %d record(s); nothing applied\n", len(batch.Records))
		return nil
	}

	acc, err := newControllerWithBackupFlag(importNoBackup)
	if err != nil {
		return err
	}
	if err := acc.BulkImport(batch, policy); err != nil {
		var conflict *types.ConflictError
		if errors.As(err, &conflict) {
			return fmt.Errorf("import rejected, %d name(s) already exist: %v", len(conflict.Names), conflict.Names)
		}
		return err
	}
	printInfo("imported %d record(s) from %s\n", len(batch.Records), path)
	return nil
}

func newControllerWithBackupFlag(skipBackup bool) (*env.Controller, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.SkipAutoBackup = skipBackup
	return env.Open(cfg)
}
