// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/chatterm/internal/session"
)

func newAskCommand(a *app) *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "ask TEXT...",
		Short: "Send one message and print the reply",
		Long: `Send one message and print the reply.

The exchange is appended to the stored conversation unless --no-history is
given. The exit status is 5 when the endpoint could not produce a reply.`,
		Example: `  chatterm ask "What is the capital of France?"
  chatterm ask --no-history "scratch question"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			text := strings.Join(args, " ")

			ctrl, store, err := a.openSession(ctx, !noHistory)
			if err != nil {
				return err
			}
			defer closeStore(store)

			if !noHistory {
				a.hydrate(ctx, ctrl)
			}

			resolutions, err := ctrl.Send(ctx, text)
			if errors.Is(err, session.ErrEmptyInput) {
				return &usageError{msg: "message is empty"}
			}
			if err != nil || len(resolutions) == 0 {
				return NewCommandError("ask", "send", errors.New("no reply"))
			}

			res := resolutions[0]
			if res.Failed {
				fmt.Fprintln(a.out, res.Turn.Text)
				return errExchangeFailed
			}
			opts := a.lineOptions()
			fmt.Fprintln(a.out, opts.Markup.Render(res.Turn.Text, opts.Width))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or write the stored conversation")
	return cmd
}
