package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/jamesainslie/filer/pkg/filer/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage filer configuration settings.

Configuration is loaded from:
  1. the file named by --config
  2. $XDG_CONFIG_HOME/filer/config.yaml (if set)
  3. ~/.config/filer/config.yaml

Environment variables override config file settings using the FILER_ prefix:
  FILER_SHOW_HIDDEN=true
  FILER_USE_TRASH=true
  FILER_CACHE_ENABLED=true
  FILER_LOGGING_LEVEL=debug`,
}

var configShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	RunE:        runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Show the configuration file path",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	RunE:        runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Create a default configuration file",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	RunE:        runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration file",
	Long: `Open the configuration file in $VISUAL, $EDITOR or vi, creating a
default one first if needed.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipApp: "true"},
	RunE:        runConfigEdit,
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.File != "" {
		fmt.Fprintf(out, "# Config file: %s\n", cfg.File)
	} else {
		fmt.Fprintln(out, "# Config file: (using defaults, no file found)")
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}
	return nil
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	path, created, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	if !created {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'filer config edit' to modify it.")
		return nil
	}
	printInfo("Created default config file: %s", path)
	return nil
}

func runConfigEdit(_ *cobra.Command, _ []string) error {
	path, _, err := config.WriteDefault()
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", path, editor)

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}
