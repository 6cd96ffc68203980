// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/ui/chat"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the full-screen chat (default)",
		Long: `Open the full-screen chat.

Stored history is restored at startup and every reply is saved. When stdin or
stdout is not a terminal, chat falls back to line mode (see "chatterm repl").
Edits to the config file are picked up while the chat is open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context())
		},
	}
}

func (a *app) runChat(ctx context.Context) error {
	if !a.interactive() {
		log.Info().Msg("no terminal, using line mode")
		return a.runREPL(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctrl, store, err := a.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer closeStore(store)

	theme := styles.NewTheme(a.cfg.UI.Theme)
	m := chat.New(chat.Options{
		Controller:     ctrl,
		Theme:          theme,
		Markup:         render.NewMarkup(a.cfg.UI, theme),
		Endpoint:       a.cfg.Exchange.Endpoint,
		Backend:        a.cfg.Storage.Backend,
		HydrateTimeout: a.cfg.Session.HydrateTimeout,
		Context:        ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	eg.Go(func() error {
		<-egCtx.Done()
		p.Quit()
		return nil
	})
	if path := a.watchPath(); path != "" {
		w := config.NewWatcher(path, func(cfg *config.Config) {
			p.Send(chat.ConfigReloadedMsg{Config: cfg})
		})
		eg.Go(func() error {
			if err := w.Run(egCtx); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("config watcher stopped")
			}
			return nil
		})
	}

	return eg.Wait()
}

// watchPath returns the config file to watch, or "" when there is none.
func (a *app) watchPath() string {
	path, err := a.resolvedConfigPath()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
