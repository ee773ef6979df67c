package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-bugfix/pkg/config"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/logging"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/mcp"
	"github.com/ekaya-inc/ekaya-bugfix/pkg/mcp/tools"
)

const shutdownTimeout = 10 * time.Second

func newMCPCmd(a *app) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the bugfix tools over MCP",
		Long: `Starts an MCP server exposing project analysis, log search, log extraction, query templates
and the bug investigation workflow. The server speaks JSON-RPC over stdio unless --http is
given, in which case the streamable HTTP transport is served at /mcp.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Stdout carries the protocol; switch to the JSON server logger on stderr.
			logger, err := logging.NewServerLogger(a.verbose)
			if err != nil {
				return err
			}
			a.logger = logger

			cfg, err := a.loadConfig(false)
			if err != nil {
				return err
			}

			server := newMCPServer(cfg, logger)
			if httpAddr == "" {
				return server.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
			}
			return serveHTTP(cmd.Context(), httpAddr, server.HTTPHandler(), logger)
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address (e.g. :3443) instead of stdio")
	return cmd
}

func newMCPServer(cfg *config.Config, logger *zap.Logger) *mcp.Server {
	svc := newServiceSet(cfg, logger)

	server := mcp.NewServer("ekaya-bugfix", Version, mcp.NewCallLogger(logger), logger)
	s := server.MCP()

	tools.RegisterHealthTool(s, Version, cfg)
	tools.RegisterProjectTools(s, &tools.ProjectToolDeps{Analyzer: svc.Analyzer, Logger: logger})
	tools.RegisterLogTools(s, &tools.LogToolDeps{LogSearch: svc.LogSearch, Extractor: svc.Extractor, Logger: logger})
	tools.RegisterQueryTools(s, &tools.QueryToolDeps{QueryService: svc.Query, Logger: logger})
	tools.RegisterBugfixTools(s, &tools.BugfixToolDeps{Bugfix: svc.Bugfix, Logger: logger})

	return server
}

// serveHTTP runs handler on addr until ctx is cancelled.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving MCP over HTTP", zap.String("addr", addr), zap.String("path", "/mcp"))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down MCP HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
