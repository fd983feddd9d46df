package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/winenv/envkit/pkg/env"
)

var searchIn string

func init() {
	cmd := newSearchCmd()
	cmd.Flags().StringVar(&searchIn, "in", "both", "Fields to match (name, value, both)")
	rootCmd.AddCommand(cmd)
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search variables by name and value across both scopes",
		Long: `The search command matches case-insensitively against names, values,
or both.

Example:
  envctl search java
  envctl search "C:\Program Files" --in value`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(args[0])
		},
	}
}

func runSearch(query string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	var field env.SearchField
	switch searchIn {
	case "name":
		field = env.SearchName
	case "value":
		field = env.SearchValue
	case "", "both":
		field = env.SearchBoth
	default:
		return fmt.Errorf("unknown search field %q (name, value, both)", searchIn)
	}
	hits, err := ctl.Search(query, field)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(hits)
	}
	for _, v := range hits {
		fmt.Fprintf(os.Stdout, "%s  %s=%s\n", render(dimStyle, v.Scope.String()), render(nameStyle, v.Name), v.Value)
	}
	printInfo("%d match(es)\n", len(hits))
	return nil
}
