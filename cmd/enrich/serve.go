package main

import (
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/enrich/auth"
	"github.com/randalmurphal/enrich/enhancer"
	"github.com/randalmurphal/enrich/git"
	"github.com/randalmurphal/enrich/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the enhancer pipeline over HTTP",
		Long: `Start an HTTP server exposing the enhancer pipeline.

Endpoints:
  GET  /healthz      liveness and pipeline order
  GET  /metrics      Prometheus metrics
  POST /v1/enrich    enrich a response
  POST /v1/validate  validate a response against a schema

When server.jwt_secret or server.api_keys is set, the /v1 endpoints
require a bearer token (see "enrich token issue") or an X-API-Key header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.settings.ServerAddr
			}
			logger := slog.New(slog.NewJSONHandler(a.stderr, &slog.HandlerOptions{Level: a.settings.LogLevel}))
			a.logger = logger

			env, err := a.openEnvironment()
			switch {
			case errors.Is(err, git.ErrNotGitRepo):
				logger.Warn("not in a git repository, team activity limited", "dir", a.dir)
				env = nil
			case err != nil:
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := enhancer.NewMetrics(reg)

			n, flush := a.notifier()
			defer flush()

			p, err := a.newPipeline(env, n, metrics, false)
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithLogger(logger),
				server.WithRegistry(reg),
				server.WithRequestTimeout(timeout),
			}
			if a.settings.JWTSecret != "" {
				tokens, err := auth.NewTokenService(auth.JWTConfig{Secret: a.settings.JWTSecret})
				if err != nil {
					return err
				}
				opts = append(opts, server.WithTokens(tokens))
			}
			if len(a.settings.APIKeys) > 0 {
				opts = append(opts, server.WithAPIKeys(auth.NewKeySet(a.settings.APIKeys...)))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(p, opts...).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default: server.addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultRequestTimeout, "per-request pipeline timeout")
	return cmd
}
