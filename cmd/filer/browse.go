package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/filer/cmd/filer/tui"
	"github.com/jamesainslie/filer/pkg/filer/watcher"
	"github.com/spf13/cobra"
)

// runBrowse opens the interactive browser.
func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := requireApp()
	if err != nil {
		return err
	}

	dir, err := a.startDir(args)
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	opts := tui.Options{
		Dir:       dir,
		Inventory: a.inv,
		Engine:    a.engine(),
		Clipboard: a.clip,
		Labels:    a.labelOptions(),
		Trash:     a.cfg.UseTrash,
	}

	if a.cfg.Watch {
		wopts := watcher.Options{}
		if a.cache != nil {
			wopts.Invalidator = a.cache
		}
		w, err := watcher.New(wopts)
		if err != nil {
			a.log.Warn("live refresh unavailable", "error", err)
		} else {
			defer w.Close()
			opts.Watcher = w
		}
	}

	a.log.Info("starting browser", "dir", dir, "watch", opts.Watcher != nil)
	return tui.Run(cmd.Context(), opts)
}
