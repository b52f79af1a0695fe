package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/filer/pkg/filer/cache"
	"github.com/jamesainslie/filer/pkg/filer/clipboard"
	"github.com/jamesainslie/filer/pkg/filer/config"
	"github.com/jamesainslie/filer/pkg/filer/engine"
	"github.com/jamesainslie/filer/pkg/filer/history"
	"github.com/jamesainslie/filer/pkg/filer/inventory"
	"github.com/jamesainslie/filer/pkg/filer/logging"
	"github.com/jamesainslie/filer/pkg/filer/trash"
	"github.com/jamesainslie/filer/pkg/filer/types"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg     *config.Config
	inv     *inventory.Inventory
	cache   *cache.Cache
	journal *history.Journal
	clip    clipboard.Store
	log     *logging.Logger
}

// newApp opens the optional cache and journal described by cfg. A cache held
// by another filer is replaced with an in-memory one; any other cache failure
// is logged and skipped.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, log: logging.Get("cli")}

	clip, err := clipboard.New(cfg.Clipboard)
	if err != nil {
		return nil, err
	}
	a.clip = clip

	opts := inventory.DefaultOptions()
	opts.ShowHidden = cfg.ShowHidden
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}
	if cfg.MaxDepth > 0 {
		opts.MaxDepth = cfg.MaxDepth
	}

	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.CachePath())
		if errors.Is(err, cache.ErrLocked) {
			a.log.Info("size cache busy, using memory", "path", cfg.CachePath(), "error", err)
			c, err = cache.OpenMemory()
		}
		if err != nil {
			a.log.Warn("size cache unavailable", "path", cfg.CachePath(), "error", err)
		} else {
			a.cache = c
			opts.Cache = c
		}
	}
	a.inv = inventory.New(opts)

	if cfg.History.Enabled {
		j, err := history.New(cfg.HistoryPath())
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.journal = j
	}

	a.log.Debug("application ready",
		"config", cfg.File,
		"cache", a.cache != nil,
		"history", a.journal != nil,
		"clipboard", cfg.Clipboard,
		"workers", opts.Workers)
	return a, nil
}

// engine returns a fresh Engine wired to the trash, clipboard, journal and
// cache.
func (a *app) engine() *engine.Engine {
	opts := engine.Options{Clipboard: a.clip}
	if a.cfg.UseTrash {
		opts.Trash = trash.New()
	}
	if a.journal != nil {
		opts.Recorder = a.journal
	}
	if a.cache != nil {
		opts.Invalidator = a.cache
	}
	return engine.New(opts)
}

// labelOptions returns how metadata labels are rendered.
func (a *app) labelOptions() types.LabelOptions {
	return types.LabelOptions{TimeLayout: a.cfg.TimeLayout, Relative: a.cfg.RelativeTime}
}

// startDir resolves the directory to open from args or the configured
// default.
func (a *app) startDir(args []string) (string, error) {
	dir := a.cfg.DefaultPath
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		dir = "."
	}

	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(expanded)
}

func (a *app) close() error {
	var errs []error
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
		a.cache = nil
	}
	return errors.Join(errs...)
}

// requireApp returns the application opened by bootstrap.
func requireApp() (*app, error) {
	if current == nil {
		return nil, errors.New("application not initialized")
	}
	return current, nil
}
