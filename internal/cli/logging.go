// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jeranaias/chatterm/internal/config"
)

// parseLevel converts a config level into a zerolog level, defaulting to info.
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// logFilePath resolves a relative log file name against the config directory.
func logFilePath(file string) string {
	if file == "" {
		file = config.Default().Log.File
	}
	if filepath.IsAbs(file) {
		return file
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return file
	}
	return filepath.Join(dir, file)
}

// SetupLogging configures the global zerolog logger. The full-screen chat
// owns stdout, so logs go to a rotating file unless console is set, in which
// case they go to console (normally stderr) in human-readable form.
// The returned closer releases the log file.
func SetupLogging(cfg config.LogConfig, console io.Writer) io.Closer {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	if console != nil {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   logFilePath(cfg.File),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	}
	log.Logger = zerolog.New(rotator).With().Timestamp().Logger()
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
