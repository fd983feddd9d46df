package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/winenv/envkit/internal/validate"
	"github.com/winenv/envkit/pkg/types"
)

var (
	pathScope string
	pathVar   string
	pathAt    int
)

func init() {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Inspect and edit PATH-style variables segment by segment",
		Long: `The path subcommands treat a variable as an ordered list of directories.
Segment order is preserved exactly; duplicates are rejected before anything
is written.`,
	}
	cmd.PersistentFlags().StringVar(&pathScope, "scope", "user", "Scope to edit (user, system)")
	cmd.PersistentFlags().StringVar(&pathVar, "var", "Path", "PATH-style variable to edit")

	addCmd := &cobra.Command{
		Use:   "add <dir>",
		Short: "Append a directory (or insert with --at)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPathAdd(args[0])
		},
	}
	addCmd.Flags().IntVar(&pathAt, "at", -1, "Insert position (0-based; -1 appends)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Print segments in order",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPathList()
			},
		},
		addCmd,
		&cobra.Command{
			Use:   "remove <dir-or-index>",
			Short: "Remove a directory by value or 0-based index",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPathRemove(args[0])
			},
		},
		&cobra.Command{
			Use:   "move <from> <to>",
			Short: "Move a segment to a new 0-based position",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPathMove(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "dedupe",
			Short: "Drop duplicate segments, keeping the first occurrence",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runPathDedupe()
			},
		},
	)
	rootCmd.AddCommand(cmd)
}

func pathSegments() (*types.Variable, []string, error) {
	ctl, err := newController()
	if err != nil {
		return nil, nil, err
	}
	scope, err := types.ParseScope(pathScope)
	if err != nil {
		return nil, nil, err
	}
	v, err := ctl.Get(scope, pathVar)
	if errors.Is(err, types.ErrNotFound) {
		// Absent variable edits as an empty list; add creates it.
		v = types.Variable{Scope: scope, Name: pathVar}
	} else if err != nil {
		return nil, nil, err
	}
	v.Kind = types.KindPathLike
	return &v, v.Segments(), nil
}

func writeSegments(scope types.Scope, segments []string) error {
	ctl, err := newController()
	if err != nil {
		return err
	}
	return ctl.SetSegments(scope, pathVar, segments)
}

func runPathList() error {
	v, segments, err := pathSegments()
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(segments)
	}
	fmt.Fprintln(os.Stdout, render(scopeStyle, fmt.Sprintf("%s (%s scope), %d segment(s)", v.Name, v.Scope, len(segments))))
	for i, seg := range segments {
		marker := " "
		if !validate.StatDir(seg) {
			marker = render(dimStyle, "missing")
		}
		fmt.Fprintf(os.Stdout, "  %2d. %s %s\n", i, seg, marker)
	}
	return nil
}

func runPathAdd(dir string) error {
	v, segments, err := pathSegments()
	if err != nil {
		return err
	}
	if pathAt < 0 || pathAt >= len(segments) {
		segments = append(segments, dir)
	} else {
		segments = append(segments[:pathAt], append([]string{dir}, segments[pathAt:]...)...)
	}
	if err := writeSegments(v.Scope, segments); err != nil {
		return err
	}
	printInfo("added %s to %s\n", dir, v.Name)
	return nil
}

func runPathRemove(target string) error {
	v, segments, err := pathSegments()
	if err != nil {
		return err
	}
	idx := -1
	if n, convErr := parseIndex(target, len(segments)); convErr == nil {
		idx = n
	} else {
		key := validate.SegmentKey(target)
		for i, seg := range segments {
			if validate.SegmentKey(seg) == key {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return fmt.Errorf("segment %q not found in %s", target, v.Name)
	}
	removed := segments[idx]
	segments = append(segments[:idx], segments[idx+1:]...)
	if err := writeSegments(v.Scope, segments); err != nil {
		return err
	}
	printInfo("removed %s from %s\n", removed, v.Name)
	return nil
}

func runPathMove(fromArg, toArg string) error {
	v, segments, err := pathSegments()
	if err != nil {
		return err
	}
	from, err := parseIndex(fromArg, len(segments))
	if err != nil {
		return err
	}
	to, err := parseIndex(toArg, len(segments))
	if err != nil {
		return err
	}
	seg := segments[from]
	segments = append(segments[:from], segments[from+1:]...)
	segments = append(segments[:to], append([]string{seg}, segments[to:]...)...)
	if err := writeSegments(v.Scope, segments); err != nil {
		return err
	}
	printInfo("moved %s to position %d\n", seg, to)
	return nil
}

func runPathDedupe() error {
	v, segments, err := pathSegments()
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(segments))
	var kept []string
	for _, seg := range segments {
		key := validate.SegmentKey(seg)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, seg)
	}
	if len(kept) == len(segments) {
		printInfo("no duplicates in %s\n", v.Name)
		return nil
	}
	if err := writeSegments(v.Scope, kept); err != nil {
		return err
	}
	printInfo("removed %d duplicate segment(s) from %s\n", len(segments)-len(kept), v.Name)
	return nil
}

func parseIndex(s string, length int) (int, error) {
	var n int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err != nil {
		return 0, fmt.Errorf("not an index: %q", s)
	}
	if n < 0 || n >= length {
		return 0, fmt.Errorf("index %d out of range (0..%d)", n, length-1)
	}
	return n, nil
}
