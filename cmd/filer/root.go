package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jamesainslie/filer/pkg/filer/config"
	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/spf13/cobra"
)

// skipApp marks commands that run without opening the cache, journal and
// clipboard.
const skipApp = "filer/skip-app"

var (
	cfgFile     string
	flagHidden  bool
	flagTrash   bool
	flagNoCache bool
	flagVerbose bool
	flagQuiet   bool

	// current is the application opened by the persistent pre-run hook.
	current *app

	rootCmd = &cobra.Command{
		Use:   "filer [path]",
		Short: "Browse directories and manage files",
		Long: `Filer lists a directory with per-entry sizes, item counts and
modification times, and lets you select, delete, rename, move and paste files.

Without a subcommand filer opens the interactive browser.

Examples:
  filer                      # Browse the current directory
  filer ~/Downloads          # Browse a specific directory
  filer ls -o json .         # Non-interactive listing
  filer rm --trash a.txt     # Move a file to the trash
  filer mv *.log ../archive  # Move files into a directory
  filer yank report.pdf      # Put a file on the clipboard
  filer paste ~/Desktop      # Copy the clipboard file here
  filer history              # View operation history`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBrowse,
	}
)

func init() {
	// Assigned here rather than in the literal: bootstrap refers to rootCmd.
	rootCmd.PersistentPreRunE = bootstrap

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/filer/config.yaml)")
	pf.BoolVarP(&flagHidden, "hidden", "a", false, "show dot-files")
	pf.BoolVar(&flagTrash, "trash", false, "move deleted entries to the trash")
	pf.BoolVar(&flagNoCache, "no-cache", false, "do not use the directory-size cache")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "debug output on stderr")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "minimal output")
}

// bootstrap loads configuration, applies flag overrides, initializes logging
// and opens the application for every command that needs it.
func bootstrap(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipApp] != "" {
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := initLogging(cfg, cmd == rootCmd); err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	current = a
	return nil
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("hidden") {
		cfg.ShowHidden = flagHidden
	}
	if flags.Changed("trash") {
		cfg.UseTrash = flagTrash
	}
	if flags.Changed("no-cache") && flagNoCache {
		cfg.Cache.Enabled = false
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// initLogging starts file logging. In TUI mode nothing is mirrored to the
// terminal.
func initLogging(cfg *config.Config, tuiMode bool) error {
	lc := cfg.LoggingConfig(tuiMode)
	if flagVerbose {
		lc.ConsoleLevel = "debug"
	}
	if err := logging.Init(lc); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// Execute runs the root command and releases the application afterwards.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if current != nil {
		if cerr := current.close(); cerr != nil {
			logging.Get("cli").Warn("closing application", "error", cerr)
		}
		current = nil
	}
	_ = logging.Close()

	if err != nil && !errors.Is(err, errOperation) {
		printError("%v", err)
	}
	return err
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if flagVerbose && !flagQuiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !flagQuiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
