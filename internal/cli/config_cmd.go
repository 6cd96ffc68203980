// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatterm/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	var (
		initFile bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration",
		Long: `Print the effective configuration, environment overrides included.

With --init, write a config file holding the defaults.`,
		Annotations: map[string]string{annotationConfigOptional: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !initFile {
				fmt.Fprintln(a.out, a.cfg.String())
				return nil
			}

			path, err := a.resolvedConfigPath()
			if err != nil {
				return NewCommandError("config", "init", err)
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewCommandError("config", "init", errors.Errorf("%s already exists (use --force to overwrite)", path))
			}
			if err := saveConfig(config.Default(), path); err != nil {
				return NewCommandError("config", "init", err)
			}
			fmt.Fprintf(a.out, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&initFile, "init", false, "write a default config file")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file with --init")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print one setting (e.g. storage.backend)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := a.cfg.Get(args[0])
				if err != nil {
					return &usageError{msg: err.Error()}
				}
				fmt.Fprintln(a.out, v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Change one setting and save the config file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := a.cfg.Clone()
				if err := cfg.Set(args[0], args[1]); err != nil {
					return &usageError{msg: err.Error()}
				}
				if err := cfg.Validate(); err != nil {
					return &configError{err: err}
				}
				path, err := a.resolvedConfigPath()
				if err != nil {
					return NewCommandError("config", "set", err)
				}
				if err := saveConfig(cfg, path); err != nil {
					return NewCommandError("config", "set", err)
				}
				a.cfg = cfg
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every setting name",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(a.out, strings.Join(config.GetAllKeys(), "\n"))
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := a.resolvedConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, path)
				return nil
			},
		},
	)
	return cmd
}

func saveConfig(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
