// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for chatterm.
package storage

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/chatterm/internal/model"
)

// =============================================================================
// HISTORY EXPORT
// =============================================================================

// Export formats accepted by Export.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// ExportMarkdown exports the turns as a Markdown transcript.
func ExportMarkdown(turns []model.Turn) string {
	var sb strings.Builder
	sb.WriteString("# Chat history\n\n")
	if len(turns) == 0 {
		sb.WriteString("_No messages._\n")
		return sb.String()
	}
	sb.WriteString("---\n\n")

	for _, turn := range turns {
		sb.WriteString("**" + turn.Speaker.DisplayName() + "**:\n\n")
		sb.WriteString(turn.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON exports the turns as pretty-printed JSON in the stored shape.
func ExportJSON(turns []model.Turn) ([]byte, error) {
	if turns == nil {
		turns = []model.Turn{}
	}
	return json.MarshalIndent(turns, "", "  ")
}

// yamlTurn is the YAML shape of a turn.
type yamlTurn struct {
	Speaker string `yaml:"speaker"`
	Text    string `yaml:"text"`
}

// ExportYAML exports the turns as a YAML list.
func ExportYAML(turns []model.Turn) ([]byte, error) {
	out := make([]yamlTurn, 0, len(turns))
	for _, turn := range turns {
		out = append(out, yamlTurn{Speaker: turn.Speaker.String(), Text: turn.Text})
	}
	return yaml.Marshal(out)
}

// Export renders turns in the named format.
func Export(turns []model.Turn, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "md", "":
		return []byte(ExportMarkdown(turns)), nil
	case FormatJSON:
		return ExportJSON(turns)
	case FormatYAML, "yml":
		return ExportYAML(turns)
	default:
		return nil, errors.Errorf("unknown export format %q", format)
	}
}
