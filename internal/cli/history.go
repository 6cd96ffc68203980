// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatterm/internal/storage"
	"github.com/jeranaias/chatterm/internal/util"
)

func newHistoryCommand(a *app) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print or export the stored conversation",
		Example: `  chatterm history
  chatterm history --format json
  chatterm history --format yaml --output chat.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := storage.Open(ctx, a.cfg.Storage)
			if err != nil {
				return NewCommandError("history", "open", err)
			}
			defer closeStore(store)

			data, err := storage.Export(store.Load(ctx), format)
			if err != nil {
				return &usageError{msg: err.Error()}
			}

			if output != "" {
				if err := util.AtomicWriteFile(output, data, 0600); err != nil {
					return NewCommandError("history", "export", err)
				}
				return nil
			}
			_, err = a.out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", storage.FormatMarkdown, "output format: markdown, json, yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
