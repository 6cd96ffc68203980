// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatterm/internal/exchange"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/storage"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// openSession wires a controller to the configured endpoint and, when persist
// is set, to the configured storage. The returned store is nil without
// persistence; closeStore handles both.
func (a *app) openSession(ctx context.Context, persist bool) (*session.Controller, *storage.Store, error) {
	policy, err := session.ParseBusyPolicy(a.cfg.Session.BusyPolicy)
	if err != nil {
		return nil, nil, &configError{err: err}
	}

	opts := session.Options{
		Exchanger:  exchange.FromConfig(a.cfg.Exchange),
		BusyPolicy: policy,
	}

	var store *storage.Store
	if persist {
		store, err = storage.Open(ctx, a.cfg.Storage)
		if err != nil {
			return nil, nil, err
		}
		opts.Store = store
	}

	ctrl := session.New(opts)
	log.Debug().Str("session", ctrl.ID()).Bool("persist", persist).Str("policy", policy.String()).Msg("session opened")
	return ctrl, store, nil
}

func closeStore(store *storage.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.Warn().Err(err).Msg("closing storage")
	}
}

// hydrate loads stored history into a fresh controller, bounded by the
// configured hydrate timeout.
func (a *app) hydrate(ctx context.Context, ctrl *session.Controller) []model.Turn {
	if d := a.cfg.Session.HydrateTimeout; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	turns := ctrl.LoadHistory(ctx)
	ctrl.Hydrate(turns)
	return turns
}

// lineOptions are the render options for line-oriented output. Styling and
// markdown are used only when colors are enabled.
func (a *app) lineOptions() render.Options {
	if !ColorsEnabled() {
		return render.Options{Markup: render.Raw{}}
	}
	theme := styles.NewTheme(a.cfg.UI.Theme)
	width := GetTerminalWidth()
	theme.SetSize(width, 0)
	return render.Options{
		Width:  width,
		Markup: render.NewMarkup(a.cfg.UI, theme),
		Theme:  theme,
	}
}
