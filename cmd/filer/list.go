package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/filer/pkg/filer/inventory"
	"github.com/jamesainslie/filer/pkg/filer/output"
	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/spf13/cobra"
)

var (
	outputFormat string
	templateStr  string
	sortBy       string
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory with sizes and item counts",
	Long: `List the entries of a directory. Directory sizes are the recursive sum
of the files below them; symlinks are never followed.

Output formats: ` + fmt.Sprint(output.Available()),
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var duCmd = &cobra.Command{
	Use:   "du [path...]",
	Short: "Show the total size of files and directories",
	RunE:  runDu,
}

func init() {
	for _, c := range []*cobra.Command{lsCmd, duCmd} {
		c.Flags().StringVarP(&outputFormat, "output", "o", "pretty", "output format")
		c.Flags().StringVar(&templateStr, "template", "", "text/template for -o template")
		c.Flags().StringVar(&sortBy, "sort", "name", "sort order: name, size or none")
	}
	rootCmd.AddCommand(lsCmd, duCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	dir, err := a.startDir(args)
	if err != nil {
		return err
	}

	entries, err := a.inv.List(cmd.Context(), dir)
	if err != nil {
		return err
	}

	res := a.describe(cmd.Context(), dir, entries)
	return render(cmd.OutOrStdout(), res)
}

func runDu(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}

	entries := make([]types.Entry, 0, len(args))
	for _, arg := range args {
		e, err := entryForPath(arg)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	wd, _ := os.Getwd()
	res := a.describe(cmd.Context(), wd, entries)
	return render(cmd.OutOrStdout(), res)
}

// describe computes metadata for entries on the loader's worker pool and
// builds a sorted listing.
func (a *app) describe(ctx context.Context, dir string, entries []types.Entry) *output.Result {
	loader := inventory.NewLoader(a.inv)
	defer loader.Close()

	start := time.Now()
	results := loader.LoadAll(ctx, entries)

	res := &output.Result{Dir: dir, Rows: make([]output.Row, 0, len(results))}
	opts := a.labelOptions()
	for _, r := range results {
		res.Rows = append(res.Rows, output.NewRow(r.Entry, r.Metadata, opts, r.Err))
		if r.Err == nil && r.Metadata.Skipped > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: %d entries could not be read", r.Entry.Name, r.Metadata.Skipped))
		}
	}
	res.Duration = time.Since(start)

	switch sortBy {
	case "size":
		res.SortBySize()
	case "none":
	default:
		res.SortByName()
	}

	printVerbose("computed %d entries in %s", len(res.Rows), res.Duration)
	return res
}

// render writes res in the selected output format.
func render(w io.Writer, res *output.Result) error {
	f, err := output.Get(outputFormat)
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, output.Available())
	}
	if tf, ok := f.(*output.TemplateFormatter); ok && templateStr != "" {
		tf.SetTemplate(templateStr)
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, res); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// entryForPath builds an entry for a path named on the command line. A
// missing path yields a file entry so the operation reports it as missing.
func entryForPath(path string) (types.Entry, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return types.Entry{}, err
	}

	info, err := os.Stat(abs)
	switch {
	case err == nil:
		return types.NewEntry(abs, info.IsDir()), nil
	case errors.Is(err, os.ErrNotExist):
		return types.NewEntry(abs, false), nil
	default:
		return types.Entry{}, types.ClassifyListError(abs, err)
	}
}
