// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatterm/internal/session"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// StatusInfo is the data shown in the status bar.
type StatusInfo struct {
	Status  session.Status
	Turns   int
	Queued  int
	Backend string
	Notice  string
}

// StatusLine renders a single status bar line no wider than width.
// The notice is truncated first, then the metadata.
func StatusLine(info StatusInfo, width int, theme *styles.Theme) string {
	indicator := styles.StatusIndicators.Idle
	if info.Status == session.StatusAwaitingResponse {
		indicator = styles.StatusIndicators.Pending
	}
	state := indicator + " " + info.Status.String()

	metaParts := []string{fmt.Sprintf("%d turns", info.Turns)}
	if info.Queued > 0 {
		metaParts = append(metaParts, fmt.Sprintf("%d queued", info.Queued))
	}
	if info.Backend != "" {
		metaParts = append(metaParts, info.Backend)
	}
	meta := strings.Join(metaParts, " | ")
	notice := info.Notice

	if width > 0 {
		budget := width
		if theme != nil {
			budget -= theme.StatusBar.GetHorizontalFrameSize()
		}
		used := runewidth.StringWidth(state) + 2 + runewidth.StringWidth(meta)
		if notice != "" {
			room := budget - used - 2
			if room < 4 {
				notice = ""
			} else {
				notice = runewidth.Truncate(notice, room, "...")
			}
		}
		if used > budget {
			meta = runewidth.Truncate(meta, max(budget-runewidth.StringWidth(state)-2, 0), "...")
		}
	}

	if theme == nil {
		line := state + "  " + meta
		if notice != "" {
			line += "  " + notice
		}
		return line
	}

	stateStyle := theme.StatusIdle
	if info.Status == session.StatusAwaitingResponse {
		stateStyle = theme.StatusAwaiting
	}
	line := stateStyle.Render(state) + "  " + theme.StatusMeta.Render(meta)
	if notice != "" {
		line += "  " + theme.StatusNotice.Render(notice)
	}
	bar := theme.StatusBar
	if width > 0 {
		bar = bar.Width(width)
	}
	return bar.Render(line)
}
