package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/ekaya-inc/ekaya-bugfix/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-bugfix/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

// app carries the state shared by all commands.
type app struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(&app{})
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(reportError(os.Stdout, os.Stderr, err))
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:     "ekaya-bugfix",
		Short:   "Investigate production bugs in Java services",
		Long:    "ekaya-bugfix maps a Java project's repositories and services to database tables, searches\nthe log server for trace IDs and extracts SQL, errors and user identifiers from the logs.",
		Version: Version,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "configuration file (default: "+config.EnvConfigPath+", ./bugfix.config.json, ~/.vibedev/bugfix.config.json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newAnalyzeCmd(a),
		newSearchCmd(a),
		newExtractCmd(a),
		newQueryCmd(a),
		newBugCmd(a),
		newMCPCmd(a),
		newEncryptSecretCmd(),
	)
	return root
}

// loadConfig reads the tool configuration. With required false, a missing
// file falls back to environment variables and defaults.
func (a *app) loadConfig(required bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if required {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadOptional(a.configPath)
	}
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		a.logger.Debug("Configuration loaded", zap.String("path", cfg.Path))
	}
	return cfg, nil
}

// reportError prints err and returns the exit status. Configuration problems
// are printed to stdout so they show up next to the command output.
func reportError(stdout, stderr io.Writer, err error) int {
	if isConfigError(err) {
		fmt.Fprintf(stdout, "Configuration error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

func isConfigError(err error) bool {
	return errors.Is(err, apperrors.ErrConfigNotFound) ||
		errors.Is(err, apperrors.ErrConfigMalformed) ||
		errors.Is(err, apperrors.ErrCredentialsKeyMismatch)
}
