package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jamesainslie/filer/pkg/filer/cache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the directory-size cache",
	Long: `Commands for the directory-size cache.

The cache stores recursive directory totals keyed by path and modification
time so that revisiting a directory does not walk it again. It is enabled
with cache.enabled in the config file.`,
}

var cacheClearCmd = &cobra.Command{
	Use:         "clear",
	Short:       "Remove all cached directory totals",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			n, err := c.Clear()
			if err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			printInfo("Removed %d cached totals.", n)
			return nil
		})
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:         "stats",
	Short:       "Show cache statistics",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCache(cmd, func(c *cache.Cache) error {
			n, err := c.Len()
			if err != nil {
				return fmt.Errorf("failed to count cache entries: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache location: %s\n", cachePath(cmd))
			fmt.Fprintf(cmd.OutOrStdout(), "Cached totals:  %d\n", n)
			return nil
		})
	},
}

var cachePathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show cache location",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), cachePath(cmd))
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheStatsCmd, cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

// cachePath returns the configured cache location, or the default when the
// config cannot be read.
func cachePath(cmd *cobra.Command) string {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cache.DefaultPath()
	}
	return cfg.CachePath()
}

// withCache opens the cache for a maintenance command. The cache commands
// skip bootstrap so they work while cache.enabled is false.
func withCache(cmd *cobra.Command, fn func(*cache.Cache) error) error {
	path := cachePath(cmd)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		printInfo("Cache is empty (%s does not exist).", path)
		return nil
	}

	c, err := cache.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer c.Close()
	return fn(c)
}
