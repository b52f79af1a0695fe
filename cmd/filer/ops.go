package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/filer/pkg/filer/engine"
	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Delete files and directories",
	Long: `Delete the named entries. Each entry is removed independently, so one
failure does not stop the rest. With --trash (or use_trash in the config)
entries go to the desktop trash where one is available.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemove,
}

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename a file in place",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

var mvCmd = &cobra.Command{
	Use:   "mv <path>... <dir>",
	Short: "Move files into a directory",
	Long: `Move the named files into an existing directory. Directories are not
moved. An existing file at the destination is never overwritten.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMove,
}

var yankCmd = &cobra.Command{
	Use:   "yank <path>",
	Short: "Put a file reference on the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runYank,
}

var pasteCmd = &cobra.Command{
	Use:   "paste [dir]",
	Short: "Copy the clipboard file into a directory",
	Long: `Copy the file referenced by the clipboard into dir (default: the current
directory), keeping its name. An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPaste,
}

func init() {
	rootCmd.AddCommand(rmCmd, renameCmd, mvCmd, yankCmd, pasteCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	groups, err := groupByDir(args)
	if err != nil {
		return err
	}

	var results []engine.Result
	for _, g := range groups {
		eng := a.engine()
		selectGroup(eng, g)
		results = append(results, eng.Delete(cmd.Context()))
	}
	return report(results...)
}

func runRename(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	entry, err := entryForPath(args[0])
	if err != nil {
		return err
	}

	eng := a.engine()
	eng.SetEntries(entry.Dir(), []types.Entry{entry})
	return report(eng.Rename(cmd.Context(), entry, args[1]))
}

func runMove(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	dest := args[len(args)-1]
	groups, err := groupByDir(args[:len(args)-1])
	if err != nil {
		return err
	}

	var results []engine.Result
	for _, g := range groups {
		eng := a.engine()
		selectGroup(eng, g)
		results = append(results, eng.Move(cmd.Context(), dest))
	}
	return report(results...)
}

func runYank(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	path, err := yankTarget(args[0])
	if err != nil {
		return err
	}

	if err := a.clip.Write(cmd.Context(), path); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	printInfo("Yanked %s", path)
	return nil
}

func runPaste(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	dest := "."
	if len(args) > 0 {
		dest = args[0]
	}
	dest, err = filepath.Abs(dest)
	if err != nil {
		return err
	}

	eng := a.engine()
	eng.SetEntries(dest, nil)
	return report(eng.CopyFromClipboard(cmd.Context(), dest))
}

// yankTarget resolves path for the clipboard. Only regular files can be
// pasted, so anything else is refused up front.
func yankTarget(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(abs)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", types.ErrSourceMissing, abs)
	}
	if err != nil {
		return "", types.ClassifyListError(abs, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", types.ErrNotAFile, abs)
	}
	return abs, nil
}

// dirGroup is a set of command-line entries sharing a parent directory.
type dirGroup struct {
	dir     string
	entries []types.Entry
}

// groupByDir resolves paths and groups them by parent, keeping the order in
// which each parent first appears. Duplicate paths are dropped.
func groupByDir(paths []string) ([]dirGroup, error) {
	var groups []dirGroup
	index := make(map[string]int)
	seen := make(map[string]bool)

	for _, p := range paths {
		e, err := entryForPath(p)
		if err != nil {
			return nil, err
		}
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true

		dir := e.Dir()
		i, ok := index[dir]
		if !ok {
			i = len(groups)
			index[dir] = i
			groups = append(groups, dirGroup{dir: dir})
		}
		groups[i].entries = append(groups[i].entries, e)
	}
	return groups, nil
}

// selectGroup makes g the engine's view and selects every entry in it.
func selectGroup(eng *engine.Engine, g dirGroup) {
	eng.SetEntries(g.dir, g.entries)
	eng.SelectAll()
}

// errOperation marks a command whose operation did not fully succeed. The
// summary has already been printed.
var errOperation = errors.New("operation did not complete")

// report prints each result's summary and fails when any did not succeed.
func report(results ...engine.Result) error {
	failed := false
	for _, res := range results {
		if res.OK() {
			printInfo("%s", res.Summary())
			continue
		}
		failed = true
		fmt.Fprintln(os.Stderr, res.Summary())
		for _, f := range res.Failed {
			printVerbose("%s: %v", f.Name, f.Err)
		}
	}
	if failed {
		return errOperation
	}
	return nil
}

