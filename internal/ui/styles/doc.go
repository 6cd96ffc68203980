// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatterm TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. An explicit theme mode pins the background instead.

# Color System (colors.go)

	Purple  - Assistant labels, code badges
	Cyan    - User labels, input prompt
	Emerald - Idle status
	Amber   - Awaiting response
	Rose    - Failure replies and errors

# Theme System (theme.go)

	theme := styles.NewTheme("auto")
	theme.SetSize(width, height)
	label := theme.UserLabel.Render("You:")

GlamourStyle maps the theme mode onto a glamour standard style so markdown
rendering follows the same background.

# Animation System (animations.go)

Spinner configurations convert into bubbles spinner definitions:

	s := spinner.New(spinner.WithSpinner(styles.LineSpinner.Spinner()))
*/
package styles
