// Package cli is the taskboard command line front end.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/p-blackswan/taskboard/internal/app"
	"github.com/p-blackswan/taskboard/internal/config"
	perrors "github.com/p-blackswan/taskboard/internal/errors"
)

var (
	Version = "dev"
	Commit  = "none"
)

var (
	verbose    bool
	jsonOutput bool

	// appOptions are appended to every app.New call. Tests use it to point
	// the client at an in-process remote.
	appOptions []app.Option
	// loadConfig is replaced in tests.
	loadConfig = config.Load
)

// RootCmd is the base command.
var RootCmd = &cobra.Command{
	Use:           "taskboard",
	Version:       Version,
	Short:         "Command line client for the taskboard project service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// Execute runs the root command and prints a readable error on failure.
func Execute() error {
	err := RootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", perrors.Message(err))
	}
	return err
}

// newLogger builds the process logger. Console output goes to stderr so
// command output stays machine readable.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(w).With().Timestamp().Logger()
	if cfg.IsDevelopment() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: w})
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if !verbose && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}
	logger = logger.Level(level)
	log.Logger = logger
	return logger
}

// openApp loads config, builds the client and restores the stored session.
// The returned close function disposes the client.
func openApp(cmd *cobra.Command) (*app.App, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	a, err := app.New(cfg, logger, appOptions...)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := a.Dispose(); err != nil {
			logger.Warn().Err(err).Msg("closing token store")
		}
	}
	if err := a.Init(cmd.Context()); err != nil {
		logger.Debug().Err(err).Msg("continuing without a session")
	}
	return a, closeFn, nil
}

// withApp runs fn against an initialized client.
func withApp(fn func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, closeFn, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, cmd, a, args)
	}
}

// requireSession fails early when no session is held.
func requireSession(a *app.App) error {
	if !a.Session.IsAuthenticated() {
		return perrors.Precondition("not logged in, run 'taskboard login'")
	}
	return nil
}
