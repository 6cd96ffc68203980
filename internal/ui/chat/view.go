// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/ui/styles"
	"github.com/jeranaias/chatterm/internal/util"
)

// =============================================================================
// MAIN VIEW
// =============================================================================

func (m Model) renderChat() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.renderHeader()
	input := m.renderInput()
	status := m.renderStatusBar()
	helpView := m.help.View(m.keys)

	availableHeight := m.height -
		lipgloss.Height(header) -
		lipgloss.Height(input) -
		lipgloss.Height(status) -
		lipgloss.Height(helpView)
	if availableHeight < 1 {
		availableHeight = 1
	}

	messages := m.viewport.View()
	if lipgloss.Height(messages) != availableHeight {
		messages = lipgloss.NewStyle().
			Height(availableHeight).
			MaxHeight(availableHeight).
			Width(m.width).
			Render(messages)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		messages,
		input,
		status,
		helpView,
	)
}

// =============================================================================
// COMPONENTS
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("chatterm")
	if m.endpoint == "" || m.theme.GetLayoutMode() == styles.LayoutNarrow {
		return m.theme.Header.Width(m.width).Render(title)
	}

	room := m.width - util.StringWidth("chatterm") - 4
	endpoint := util.TruncateWidth(m.endpoint, room)
	return m.theme.Header.Width(m.width).Render(title + "  " + m.theme.HeaderSubtitle.Render(endpoint))
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	backend := m.backend
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		backend = ""
	}
	return render.StatusLine(render.StatusInfo{
		Status:  m.ctrl.Status(),
		Turns:   m.ctrl.Len(),
		Queued:  m.ctrl.Queued(),
		Backend: backend,
		Notice:  m.notice,
	}, m.width, m.theme)
}
