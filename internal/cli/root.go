// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeranaias/chatterm/internal/config"
	"github.com/jeranaias/chatterm/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationConfigOptional lets a command run with defaults when the config
// file cannot be loaded, so a broken file can be replaced.
const annotationConfigOptional = "config-optional"

// app carries state shared by every command.
type app struct {
	configPath  string
	logToStderr bool

	cfg       *config.Config
	logCloser io.Closer

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	interactive func() bool
}

func newApp() *app {
	return &app{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		interactive: IsInteractive,
	}
}

// NewRootCommand builds the chatterm command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(newApp())
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "chatterm",
		Short: "A terminal client for a chat endpoint",
		Long: `chatterm sends each message you type to a chat endpoint and keeps the
conversation, replies included, across restarts.

Running chatterm with no command opens the full-screen chat.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.teardown() },
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ~/.chatterm/config.toml)")
	root.PersistentFlags().BoolVar(&a.logToStderr, "log-to-stderr", false, "write logs to stderr instead of the log file")

	root.AddCommand(
		newChatCommand(a),
		newReplCommand(a),
		newAskCommand(a),
		newHistoryCommand(a),
		newConfigCommand(a),
	)

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	return root
}

// setup loads configuration and starts logging.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		if cmd.Annotations[annotationConfigOptional] != "true" {
			return &configError{err: err}
		}
		cfg = config.Default()
	}
	a.cfg = cfg

	var console io.Writer
	if a.logToStderr {
		console = a.errOut
	}
	a.logCloser = SetupLogging(cfg.Log, console)

	log.Debug().
		Str("command", cmd.Name()).
		Str("endpoint", cfg.Exchange.Endpoint).
		Str("storage", cfg.Storage.Backend).
		Msg("chatterm starting")
	return nil
}

// teardown closes the log output. Cobra skips post-run hooks when a command
// fails, so Execute calls it again; the second call is a no-op.
func (a *app) teardown() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		if _, err := os.Stat(a.configPath); errors.Is(err, os.ErrNotExist) {
			cfg := config.Default()
			cfg.ApplyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return config.LoadFromPath(a.configPath)
	}
	return config.Load()
}

// resolvedConfigPath is the file `config --init` writes and the watcher follows.
func (a *app) resolvedConfigPath() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.ConfigPathTOML()
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := newRootCommand(a).ExecuteContext(ctx)
	a.teardown()
	if err != nil && !errors.Is(err, errExchangeFailed) {
		fmt.Fprintln(os.Stderr, styles.RenderError(err.Error()))
	}
	return ExitCode(err)
}
