// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// Markup renders free-form reply text, optionally with fenced code blocks.
// Implementations never fail: on error they return the text unchanged.
type Markup interface {
	Render(text string, width int) string
}

// Markup names accepted by NewMarkup.
const (
	MarkupGlamour = "glamour"
	MarkupPlain   = "plain"
	MarkupRaw     = "raw"
)

// NewMarkup builds the renderer selected by the UI config.
// theme may be nil, in which case styling falls back to auto detection.
func NewMarkup(ui config.UIConfig, theme *styles.Theme) Markup {
	switch strings.ToLower(ui.Markup) {
	case MarkupRaw:
		return Raw{}
	case MarkupPlain:
		return NewPlain(ui.CodeStyle, theme)
	default:
		style := "auto"
		if theme != nil {
			style = theme.GlamourStyle()
		}
		return NewGlamour(style, ui.WordWrap)
	}
}

// =============================================================================
// RAW
// =============================================================================

// Raw returns text unchanged. Used for non-terminal output.
type Raw struct{}

// Render implements Markup.
func (Raw) Render(text string, _ int) string {
	return text
}

// =============================================================================
// GLAMOUR
// =============================================================================

// Glamour renders markdown with a glamour term renderer.
// Renderers are built lazily and cached per wrap width.
type Glamour struct {
	style    string
	wordWrap int

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	fallback  Markup
}

// NewGlamour creates a glamour markup. style is a glamour standard style
// name or "auto"; wordWrap caps the wrap width (0 follows the viewport).
func NewGlamour(style string, wordWrap int) *Glamour {
	if style == "" {
		style = "auto"
	}
	return &Glamour{
		style:     style,
		wordWrap:  wordWrap,
		renderers: make(map[int]*glamour.TermRenderer),
		fallback:  Raw{},
	}
}

// Style returns the configured glamour style name.
func (g *Glamour) Style() string {
	return g.style
}

// Render implements Markup.
func (g *Glamour) Render(text string, width int) string {
	wrap := g.wrapWidth(width)

	r, err := g.renderer(wrap)
	if err != nil {
		log.Debug().Err(err).Str("style", g.style).Msg("glamour renderer unavailable")
		return g.fallback.Render(text, width)
	}

	out, err := r.Render(text)
	if err != nil {
		log.Debug().Err(err).Msg("glamour render failed")
		return g.fallback.Render(text, width)
	}
	return strings.Trim(out, "\n")
}

func (g *Glamour) wrapWidth(width int) int {
	if width <= 0 {
		width = 80
	}
	if g.wordWrap > 0 && g.wordWrap < width {
		return g.wordWrap
	}
	return width
}

func (g *Glamour) renderer(wrap int) (*glamour.TermRenderer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.renderers[wrap]; ok {
		return r, nil
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(wrap)}
	if g.style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(g.style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	g.renderers[wrap] = r
	return r, nil
}
