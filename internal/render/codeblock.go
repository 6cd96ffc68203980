// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// DefaultCodeStyle is the chroma style used when none is configured.
const DefaultCodeStyle = "monokai"

// =============================================================================
// PLAIN MARKUP
// =============================================================================

// Plain leaves prose untouched and highlights fenced code blocks with chroma.
type Plain struct {
	CodeStyle string
	theme     *styles.Theme
}

// NewPlain creates a Plain markup. theme may be nil.
func NewPlain(codeStyle string, theme *styles.Theme) *Plain {
	if codeStyle == "" {
		codeStyle = DefaultCodeStyle
	}
	return &Plain{CodeStyle: codeStyle, theme: theme}
}

// Render implements Markup.
func (p *Plain) Render(text string, width int) string {
	blocks := ParseCodeBlocks(text)
	if len(blocks) == 1 && !blocks[0].Code {
		return text
	}

	var parts []string
	for _, b := range blocks {
		if !b.Code {
			parts = append(parts, b.Text)
			continue
		}
		cb := CodeBlock{Language: b.Language, Code: b.Text, MaxWidth: width, Style: p.CodeStyle}
		parts = append(parts, cb.render(p.theme))
	}
	return strings.Join(parts, "\n")
}

// =============================================================================
// FENCE PARSER
// =============================================================================

// Segment is a run of prose or the body of one fenced code block.
type Segment struct {
	Text     string
	Code     bool
	Language string
}

// ParseCodeBlocks splits text on ``` fences. An unclosed fence runs to the
// end of the text.
func ParseCodeBlocks(text string) []Segment {
	lines := strings.Split(text, "\n")
	var segments []Segment
	var buf []string
	var inCode bool
	var language string

	flush := func(code bool) {
		if code || len(buf) > 0 {
			segments = append(segments, Segment{
				Text:     strings.Join(buf, "\n"),
				Code:     code,
				Language: language,
			})
		}
		buf = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inCode {
				flush(true)
				language = ""
				inCode = false
			} else {
				flush(false)
				language = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "```"))
				inCode = true
			}
			continue
		}
		buf = append(buf, line)
	}

	if inCode {
		flush(true)
	} else {
		flush(false)
	}
	if len(segments) == 0 {
		segments = append(segments, Segment{})
	}
	return segments
}

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock is one fenced block ready for rendering.
type CodeBlock struct {
	Language string
	Code     string
	MaxWidth int
	Style    string
}

func (c CodeBlock) render(theme *styles.Theme) string {
	code := strings.Trim(c.Code, "\n")

	language := c.Language
	if language == "" {
		language = detectLanguage(code)
	}

	lines := strings.Split(Highlight(code, language, c.Style), "\n")

	lineNumStyle := lipgloss.NewStyle().Width(4).Align(lipgloss.Right).MarginRight(1)
	blockStyle := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).Padding(0, 1)
	badgeStyle := lipgloss.NewStyle().Bold(true)
	if theme != nil {
		lineNumStyle = lineNumStyle.Inherit(theme.CodeLineNum)
		blockStyle = theme.CodeBlock
		badgeStyle = theme.CodeLangBadge
	}

	rendered := make([]string, 0, len(lines)+1)
	if c.Language != "" {
		rendered = append(rendered, badgeStyle.Render(c.Language))
	}
	for i, line := range lines {
		rendered = append(rendered, lineNumStyle.Render(strconv.Itoa(i+1))+line)
	}

	maxWidth := c.MaxWidth - 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	return blockStyle.MaxWidth(maxWidth).Render(strings.Join(rendered, "\n"))
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// Highlight applies chroma syntax highlighting for a terminal. It returns
// code unchanged when tokenizing or formatting fails.
func Highlight(code, language, style string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	s := chromaStyles.Get(style)
	if s == nil {
		s = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, s, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func detectLanguage(code string) string {
	if lexer := lexers.Analyse(code); lexer != nil {
		return lexer.Config().Name
	}
	return ""
}
