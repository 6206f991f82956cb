package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"timelines/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the configuration file",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return fmt.Errorf("%s already exists (pass --overwrite to replace it)", target)
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set wikipedia.user_agent to a contact address and heideltime.jar_path to your HeidelTime install before running `timelines match`.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination (defaults to the user config path)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		return config.ExpandPath(target)
	}
	return config.DefaultConfigPath()
}

// newConfigValidateCommand loads the configuration itself rather than through
// PersistentPreRunE so it can report which file was used.
func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and report problems",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if ctx.configFlag != nil {
				path = *ctx.configFlag
			}
			cfg, resolved, exists, err := config.Load(strings.TrimSpace(path))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			rows := [][]string{
				{"Config", resolved},
				{"Store", cfg.StorePath()},
				{"Logs", cfg.Paths.LogDir},
				{"HeidelTime jar", cfg.HeidelTime.JarPath},
				{"NER model", cfg.NLP.ModelName},
				{"Wikipedia", cfg.Wikipedia.BaseURL},
				{"Page cache", cacheSummary(cfg)},
				{"Thresholds", formatScore(cfg.Matching.ItemThreshold) + " item / " + formatScore(cfg.Matching.WindowThreshold) + " window"},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, rows, nil))
			if !exists {
				fmt.Fprintln(out, "Config file not found; defaults were used")
			}

			if _, err := os.Stat(cfg.HeidelTime.JarPath); err != nil {
				fmt.Fprintf(out, "Warning: HeidelTime jar not found at %s\n", cfg.HeidelTime.JarPath)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func cacheSummary(cfg *config.Config) string {
	switch {
	case !cfg.Wikipedia.CacheEnabled:
		return "disabled"
	case cfg.CacheTTL() <= 0:
		return "enabled, no expiry"
	default:
		return "enabled, " + strconv.Itoa(cfg.Wikipedia.CacheTTLHours) + "h"
	}
}
