package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportScope  string
	exportFormat string
	exportStdout bool
)

func init() {
	cmd := newExportCmd()
	cmd.Flags().StringVar(&exportScope, "scope", "all", "Scope to export (user, system, all)")
	cmd.Flags().StringVar(&exportFormat, "format", "yaml", "Output format (yaml, json, csv, reg)")
	cmd.Flags().BoolVar(&exportStdout, "stdout", false, "Write to stdout instead of a file")
	rootCmd.AddCommand(cmd)
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [output-file]",
		Short: "Export environment variables to a file",
		Long: `The export command serializes one or both scopes. The .reg format is
byte-compatible with regedit's own export, so the file can be fed back to
native registry tools.

Example:
  envctl export env.yaml
  envctl export backup.reg --format reg
  envctl export --format csv --stdout > env.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out string
			if len(args) > 0 {
				out = args[0]
			}
			return runExport(out)
		},
	}
}

func runExport(outputPath string) error {
	if outputPath != "" && exportStdout {
		return fmt.Errorf("cannot specify both output file and --stdout")
	}
	if outputPath == "" && !exportStdout {
		return fmt.Errorf("must specify output file or use --stdout")
	}

	ctl, err := newController()
	if err != nil {
		return err
	}
	scopes, err := selectedScopes(exportScope)
	if err != nil {
		return err
	}
	data, err := ctl.ExportAll(exportFormat, scopes...)
	if err != nil {
		return err
	}
	if exportStdout {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return err
	}
	printInfo("exported %d scope(s) to %s\n", len(scopes), outputPath)
	return nil
}
