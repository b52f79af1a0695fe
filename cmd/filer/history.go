package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/filer/pkg/filer/config"
	"github.com/jamesainslie/filer/pkg/filer/history"
	"github.com/jamesainslie/filer/pkg/filer/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	Long: `View the journal of delete, rename, move and copy operations.

Every operation that changed at least one file is recorded with the paths
it touched and the items that failed.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show details of an operation",
	Long:  `Display an operation by its ID or a unique prefix of it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove entries older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyLimit int

// maxShownFiles caps the file list printed by history show.
const maxShownFiles = 50

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")

	historyCmd.AddCommand(historyShowCmd, historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

var errHistoryDisabled = errors.New("history is disabled (history.enabled: false)")

func journal() (*history.Journal, *app, error) {
	a, err := requireApp()
	if err != nil {
		return nil, nil, err
	}
	if a.journal == nil {
		return nil, nil, errHistoryDisabled
	}
	return a.journal, a, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	j, _, err := journal()
	if err != nil {
		return err
	}

	entries, err := j.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		return nil
	}

	writeHistoryTable(cmd.OutOrStdout(), entries)
	printInfo("\nUse 'filer history show <id>' for details on a specific entry.")
	return nil
}

func writeHistoryTable(w io.Writer, entries []history.Entry) {
	fmt.Fprintf(w, "%-36s  %-16s  %-8s  %-9s  %5s  %10s\n", "ID", "TIME", "OP", "STATUS", "FILES", "SIZE")
	fmt.Fprintln(w, strings.Repeat("-", 94))
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-16s  %-8s  %-9s  %5d  %10s\n",
			truncateString(e.ID, 36),
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Operation,
			e.Status,
			e.Summary.TotalFiles,
			types.FormatSize(e.Summary.TotalBytes))
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	j, _, err := journal()
	if err != nil {
		return err
	}

	entry, err := j.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	writeHistoryEntry(cmd.OutOrStdout(), entry)
	return nil
}

func writeHistoryEntry(w io.Writer, e *history.Entry) {
	fmt.Fprintln(w, "Operation Details")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "ID:         %s\n", e.ID)
	fmt.Fprintf(w, "Timestamp:  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Operation:  %s\n", e.Operation)
	fmt.Fprintf(w, "Status:     %s\n", e.Status)
	if e.Dest != "" {
		fmt.Fprintf(w, "Dest:       %s\n", e.Dest)
	}
	fmt.Fprintf(w, "Summary:    %s\n", e.Summary.Text)
	fmt.Fprintf(w, "Total Size: %s\n", types.FormatSize(e.Summary.TotalBytes))

	if len(e.Files) > 0 {
		fmt.Fprintln(w, "\nFiles:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		shown := min(len(e.Files), maxShownFiles)
		for _, f := range e.Files[:shown] {
			line := f.Path
			if f.Dest != "" {
				line += " -> " + f.Dest
			}
			fmt.Fprintf(w, "%-12s  %s\n", types.FormatSize(f.Size), line)
		}
		if len(e.Files) > shown {
			fmt.Fprintf(w, "\n... and %d more files\n", len(e.Files)-shown)
		}
	}

	if len(e.Failed) > 0 {
		fmt.Fprintln(w, "\nFailed:")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, f := range e.Failed {
			fmt.Fprintf(w, "%s: %s\n", f.Name, f.Error)
		}
	}
}

func runHistoryClean(_ *cobra.Command, _ []string) error {
	j, a, err := journal()
	if err != nil {
		return err
	}

	days := a.cfg.History.RetentionDays
	if days <= 0 {
		days = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", days)
	removed, err := j.Cleanup(days)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d entries.", removed)
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
