package main

import (
	"context"
	"strings"

	"github.com/aretw0/elementx"
	"github.com/aretw0/elementx/internal/cli"
	"github.com/aretw0/elementx/internal/logging"
	"github.com/aretw0/elementx/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Serves the JSON API (see /openapi.yaml) with accounts, sample history and
instrument file uploads. Requires ELEMENTX_AUTH_JWT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			quiet, _ := cmd.Flags().GetBool("quiet")
			if !quiet && isTerminal(cmd.OutOrStdout()) {
				tui.PrintBanner(cmd.OutOrStdout(), elementx.Version)
			}

			logger := logging.NewWriter(cmd.ErrOrStderr(), cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))
			ctx, stop := cli.ShutdownContext(cmd.Context(), logger)
			defer stop()

			app, err := cli.Open(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			logger.Info("starting ElementX", "version", strings.TrimSpace(elementx.Version), "backend", cfg.Store.Backend)
			if err := app.ListenAndServe(ctx); err != nil {
				return err
			}
			logger.Info("stopped", "cause", context.Cause(ctx))
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides config, default :8000)")
	cmd.Flags().Bool("quiet", false, "Do not print the banner")
	return cmd
}
