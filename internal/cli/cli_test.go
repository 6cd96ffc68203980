// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/exchange"
	"github.com/jeranaias/chatterm/internal/model"
	"github.com/jeranaias/chatterm/internal/render"
	"github.com/jeranaias/chatterm/internal/session"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// chatServer answers every POST with reply, or with status when it is not 200.
type chatServer struct {
	*httptest.Server
	calls atomic.Int32
	got   atomic.Value
}

func newChatServer(t *testing.T, status int, reply string) *chatServer {
	t.Helper()
	s := &chatServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		var req exchange.Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.got.Store(req.Message)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(exchange.Response{Response: reply})
	}))
	t.Cleanup(s.Close)
	return s
}

// writeConfig writes a config pointing at endpoint with file storage in a
// temp directory and returns its path.
func writeConfig(t *testing.T, endpoint string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Exchange.Endpoint = endpoint
	cfg.Storage.Backend = "file"
	cfg.Storage.Dir = filepath.Join(dir, "data")
	cfg.Log.Level = "debug"

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.SaveTOML(cfg, path))
	return path
}

type result struct {
	out    string
	errOut string
	err    error
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var out, errOut bytes.Buffer
	a := &app{
		in:          strings.NewReader(stdin),
		out:         &out,
		errOut:      &errOut,
		interactive: func() bool { return false },
	}
	root := newRootCommand(a)
	root.SetArgs(append([]string{"--log-to-stderr"}, args...))
	err := root.ExecuteContext(context.Background())
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsReplyAndStoresExchange(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "Paris")
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "", "--config", cfgPath, "ask", "capital", "of", "France?")
	require.NoError(t, res.err)
	assert.Equal(t, "Paris\n", res.out)
	assert.Equal(t, "capital of France?", srv.got.Load())

	hist := runCLI(t, "", "--config", cfgPath, "history")
	require.NoError(t, hist.err)
	assert.Contains(t, hist.out, "**You**:\n\ncapital of France?")
	assert.Contains(t, hist.out, "**Bot**:\n\nParis")
}

func TestAsk_RemoteFailure(t *testing.T) {
	srv := newChatServer(t, http.StatusInternalServerError, "")
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "", "--config", cfgPath, "ask", "hello")
	assert.ErrorIs(t, res.err, errExchangeFailed)
	assert.Equal(t, ExitNetworkError, ExitCode(res.err))
	assert.Equal(t, session.RemoteFailureText+"\n", res.out)

	// The failure turn is part of the stored history.
	hist := runCLI(t, "", "--config", cfgPath, "history", "--format", "json")
	require.NoError(t, hist.err)
	var turns []model.Turn
	require.NoError(t, json.Unmarshal([]byte(hist.out), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, session.RemoteFailureText, turns[1].Text)
}

func TestAsk_ReplyMatchingFailureTextSucceeds(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, session.RemoteFailureText)
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "", "--config", cfgPath, "ask", "say the error line")
	require.NoError(t, res.err)
	assert.Equal(t, ExitSuccess, ExitCode(res.err))
	assert.Equal(t, session.RemoteFailureText+"\n", res.out)
}

func TestAsk_TransportFailure(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "unused")
	cfgPath := writeConfig(t, srv.URL)
	srv.Close()

	res := runCLI(t, "", "--config", cfgPath, "ask", "hello")
	assert.Equal(t, ExitNetworkError, ExitCode(res.err))
	assert.Equal(t, session.TransportFailureText+"\n", res.out)
}

func TestAsk_NoHistory(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "ok")
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "", "--config", cfgPath, "ask", "--no-history", "scratch")
	require.NoError(t, res.err)

	hist := runCLI(t, "", "--config", cfgPath, "history")
	require.NoError(t, hist.err)
	assert.Contains(t, hist.out, "_No messages._")
}

func TestAsk_BlankMessage(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "unused")
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "", "--config", cfgPath, "ask", "   ")
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
	assert.Zero(t, srv.calls.Load())
}

// =============================================================================
// REPL AND CHAT FALLBACK
// =============================================================================

func TestRepl_PipedInput(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "reply")
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "hello\n   \n/quit\nnever sent\n", "--config", cfgPath, "repl")
	require.NoError(t, res.err)
	assert.Equal(t, int32(1), srv.calls.Load())
	assert.Equal(t, "You: hello\n\nBot: reply\n\n", res.out)

	// A second run restores the conversation before reading input.
	again := runCLI(t, "", "--config", cfgPath, "repl")
	require.NoError(t, again.err)
	assert.Equal(t, "You: hello\n\nBot: reply\n\n", again.out)
}

func TestChat_FallsBackToLineMode(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "hi there")
	cfgPath := writeConfig(t, srv.URL)

	res := runCLI(t, "hi\n", "--config", cfgPath)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Bot: hi there")

	res = runCLI(t, "again\n", "--config", cfgPath, "chat")
	require.NoError(t, res.err)
	assert.Equal(t, int32(2), srv.calls.Load())
}

type scriptedReader struct {
	lines []string
}

func (s *scriptedReader) Prompt(string) (string, error) {
	if len(s.lines) == 0 {
		return "", errors.New("EOF")
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func (s *scriptedReader) Close() error { return nil }

func TestReplLoop_NoEchoPrintsOnlyReplies(t *testing.T) {
	ex := exchange.ExchangerFunc(func(ctx context.Context, text string) (string, error) {
		return "echo: " + text, nil
	})
	ctrl := session.New(session.Options{Exchanger: ex})
	reader := &scriptedReader{lines: []string{"one", "/history", "exit", "two"}}

	var out bytes.Buffer
	err := replLoop(context.Background(), ctrl, reader, &out, render.Options{}, false)
	require.NoError(t, err)

	assert.Equal(t, "Bot: echo: one\n\nYou: one\n\nBot: echo: one\n\n", out.String())
	assert.Equal(t, 2, ctrl.Len())
}

func TestReplLoop_ReaderError(t *testing.T) {
	ctrl := session.New(session.Options{})
	err := replLoop(context.Background(), ctrl, &scriptedReader{}, &bytes.Buffer{}, render.Options{}, true)
	assert.Error(t, err)
}

func TestReplLoop_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &scriptedReader{lines: []string{"never"}}
	ctrl := session.New(session.Options{})

	require.NoError(t, replLoop(ctx, ctrl, reader, &bytes.Buffer{}, render.Options{}, true))
	assert.Zero(t, ctrl.Len())
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_Formats(t *testing.T) {
	srv := newChatServer(t, http.StatusOK, "answer")
	cfgPath := writeConfig(t, srv.URL)
	require.NoError(t, runCLI(t, "", "--config", cfgPath, "ask", "question").err)

	yml := runCLI(t, "", "--config", cfgPath, "history", "-f", "yaml")
	require.NoError(t, yml.err)
	assert.Contains(t, yml.out, "speaker: user")
	assert.Contains(t, yml.out, "text: answer")

	bad := runCLI(t, "", "--config", cfgPath, "history", "--format", "csv")
	assert.Equal(t, ExitUsageError, ExitCode(bad.err))

	outFile := filepath.Join(t.TempDir(), "export", "chat.md")
	res := runCLI(t, "", "--config", cfgPath, "history", "--output", outFile)
	require.NoError(t, res.err)
	assert.Empty(t, res.out)
	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Chat history")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfig_InitGetSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	res := runCLI(t, "", "--config", path, "config", "--init")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, path)
	require.FileExists(t, path)

	res = runCLI(t, "", "--config", path, "config", "--init")
	assert.Error(t, res.err)

	res = runCLI(t, "", "--config", path, "config", "--init", "--force")
	require.NoError(t, res.err)

	res = runCLI(t, "", "--config", path, "config", "set", "storage.backend", "sqlite")
	require.NoError(t, res.err)

	res = runCLI(t, "", "--config", path, "config", "get", "storage.backend")
	require.NoError(t, res.err)
	assert.Equal(t, "sqlite\n", res.out)

	res = runCLI(t, "", "--config", path, "config", "set", "ui.theme", "neon")
	assert.Equal(t, ExitConfigError, ExitCode(res.err))

	res = runCLI(t, "", "--config", path, "config", "get", "no.such.key")
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestConfig_ShowAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	res := runCLI(t, "", "--config", path, "config")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, config.DefaultEndpoint)

	res = runCLI(t, "", "--config", path, "config", "path")
	require.NoError(t, res.err)
	assert.Equal(t, path+"\n", res.out)

	res = runCLI(t, "", "--config", path, "config", "keys")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "exchange.endpoint")
}

func TestConfig_BrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[exchange]\nendpoint = \"not a url\"\n"), 0600))

	// config still runs so the file can be replaced.
	res := runCLI(t, "", "--config", path, "config")
	require.NoError(t, res.err)

	res = runCLI(t, "", "--config", path, "ask", "hi")
	assert.Equal(t, ExitConfigError, ExitCode(res.err))
}

// =============================================================================
// ERRORS AND LOGGING
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("boom"), ExitGeneralError},
		{"usage", &usageError{msg: "bad"}, ExitUsageError},
		{"config", &configError{err: errors.New("bad")}, ExitConfigError},
		{"validate", config.ValidateErrors{{Field: "x", Message: "y"}}, ExitConfigError},
		{"exchange", errExchangeFailed, ExitNetworkError},
		{"wrapped exchange", NewCommandError("ask", "send", &exchange.Error{Kind: exchange.KindTransport}), ExitNetworkError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCode(tc.err))
		})
	}
}

func TestCommandError(t *testing.T) {
	inner := errors.New("disk full")
	err := NewCommandError("history", "export", inner)
	assert.Equal(t, "history export: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel(" WARNING "))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("loud"))
}

func TestLogFilePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "x.log")
	assert.Equal(t, abs, logFilePath(abs))

	dir, err := config.ConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chatterm.log"), logFilePath(""))
}

func TestSetupLogging_Console(t *testing.T) {
	var buf bytes.Buffer
	closer := SetupLogging(config.LogConfig{Level: "info"}, &buf)
	defer closer.Close()

	log.Debug().Msg("hidden")
	log.Info().Msg("visible")

	assert.Contains(t, buf.String(), "visible")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupLogging_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatterm.log")
	closer := SetupLogging(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1}, nil)

	log.Debug().Str("k", "v").Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}
