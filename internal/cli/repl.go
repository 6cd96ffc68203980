// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
)

const replPrompt = "> "

func newReplCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat in line mode",
		Long: `Chat one line at a time. Each line is sent to the endpoint and the reply is
printed below it. Arrow keys recall earlier input.

Commands:
  /history   print the whole conversation
  /quit      leave (also: exit, quit, Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runREPL(cmd.Context())
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of input per call. It returns io.EOF when the
// input is exhausted.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close() error
}

// lineEditor provides input history and line editing for a terminal.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	e := &lineEditor{
		line:        line,
		historyFile: filepath.Join(configDir, "input_history"),
	}

	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// Prompt reads a line and records non-blank input in the history.
func (e *lineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if !model.IsBlank(input) {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves the input history with owner-only permissions.
func (e *lineEditor) Close() error {
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	return e.line.Close()
}

// scanReader reads lines from a non-terminal reader without prompting.
type scanReader struct {
	sc *bufio.Scanner
}

func newScanReader(r io.Reader) *scanReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &scanReader{sc: sc}
}

func (s *scanReader) Prompt(string) (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Close() error { return nil }

// =============================================================================
// LOOP
// =============================================================================

func (a *app) runREPL(ctx context.Context) error {
	ctrl, store, err := a.openSession(ctx, true)
	if err != nil {
		return err
	}
	defer closeStore(store)

	a.hydrate(ctx, ctrl)
	opts := a.lineOptions()
	fmt.Fprint(a.out, render.Transcript(ctrl.Snapshot(), ctrl.Status(), opts))

	var reader lineReader
	echo := false
	if f, ok := a.in.(*os.File); ok && f == os.Stdin && IsTTY() {
		reader = newLineEditor()
	} else {
		reader = newScanReader(a.in)
		echo = true
	}
	defer reader.Close()

	return replLoop(ctx, ctrl, reader, a.out, opts, echo)
}

// replLoop runs one synchronous exchange per input line. With echo set the
// user's own turn is printed too, for input that was not typed on screen.
func replLoop(ctx context.Context, ctrl *session.Controller, reader lineReader, out io.Writer, opts render.Options, echo bool) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := reader.Prompt(replPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch strings.TrimSpace(input) {
		case "":
			continue
		case "/quit", "/exit", "quit", "exit":
			return nil
		case "/history":
			fmt.Fprint(out, render.Transcript(ctrl.Snapshot(), ctrl.Status(), opts))
			continue
		}

		before := ctrl.Len()
		if !ctrl.Exchange(ctx, input) {
			continue
		}

		turns := ctrl.Snapshot()[before:]
		if !echo && len(turns) > 0 {
			turns = turns[1:]
		}
		for _, t := range turns {
			fmt.Fprint(out, render.TurnBlock(t, opts))
		}
		log.Debug().Str("session", ctrl.ID()).Int("turns", ctrl.Len()).Msg("line exchange done")
	}
}
