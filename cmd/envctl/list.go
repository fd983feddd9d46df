package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/winenv/envkit/pkg/types"
)

var listScope string

var (
	scopeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func init() {
	cmd := newListCmd()
	cmd.Flags().StringVar(&listScope, "scope", "all", "Scope to list (user, system, all)")
	rootCmd.AddCommand(cmd)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List environment variables",
		Long: `The list command prints the variables of one or both scopes.

Example:
  envctl list
  envctl list --scope user
  envctl list --scope system --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList()
		},
	}
}

func selectedScopes(flag string) ([]types.Scope, error) {
	if flag == "" || flag == "all" {
		return types.BothScopes, nil
	}
	scope, err := types.ParseScope(flag)
	if err != nil {
		return nil, err
	}
	return []types.Scope{scope}, nil
}

func runList() error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	scopes, err := selectedScopes(listScope)
	if err != nil {
		return err
	}

	if jsonOut {
		out := map[string][]types.Variable{}
		for _, scope := range scopes {
			set, err := ctl.Read(scope)
			if err != nil {
				return err
			}
			out[scope.String()] = set.Vars
		}
		return printJSON(out)
	}

	for _, scope := range scopes {
		set, err := ctl.Read(scope)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, render(scopeStyle, fmt.Sprintf("[%s] %d variable(s)", scope, len(set.Vars))))
		for _, v := range set.Vars {
			if v.Kind == types.KindPathLike {
				fmt.Fprintf(os.Stdout, "  %s %s\n", render(nameStyle, v.Name), render(dimStyle, "(path list)"))
				for i, seg := range v.Segments() {
					fmt.Fprintf(os.Stdout, "    %2d. %s\n", i+1, seg)
				}
				continue
			}
			fmt.Fprintf(os.Stdout, "  %s=%s\n", render(nameStyle, v.Name), v.Value)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

// render applies a style unless --no-color is set.
func render(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}
