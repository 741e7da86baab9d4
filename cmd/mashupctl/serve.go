package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"mashupctl/internal/web"
)

func newServeCommand(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the deploy console: JSON API and live event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.Web.Listen
			}
			dep, client, err := a.platform()
			platformURL := ""
			switch {
			case errors.Is(err, errNoPlatform):
				// The catalog and history stay browsable; deploy routes answer 503.
				a.logger.Warn("serving without a platform connection", "err", err)
				dep = nil
			case err != nil:
				return err
			default:
				platformURL = client.BaseURL()
			}
			db, err := a.history()
			if err != nil {
				return err
			}

			var webOpts []web.ServerOption
			if db != nil {
				webOpts = append(webOpts, web.WithHistory(db))
			}
			if a.cfg.Web.APIKey != "" {
				webOpts = append(webOpts, web.WithAPIKey(a.cfg.Web.APIKey))
			}
			if len(a.cfg.Web.AllowedOrigins) > 0 {
				webOpts = append(webOpts, web.WithAllowedOrigins(a.cfg.Web.AllowedOrigins))
			}
			webOpts = append(webOpts, web.WithVersion(version))

			webServer := web.NewServer(a.registry, dep, a.bus, a.logger, webOpts...)
			defer webServer.Stop()

			httpServer := &http.Server{
				Addr:         listen,
				Handler:      webServer,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 2 * a.cfg.timeout,
				IdleTimeout:  120 * time.Second,
			}
			if a.cfg.timeout == 0 {
				httpServer.WriteTimeout = 0
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("web server starting", "addr", listen, "platform", platformURL, "definitions", a.registry.Len())
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-cmd.Context().Done():
				a.logger.Info("shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown", "err", err)
			}
			a.logger.Info("goodbye")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default web.listen)")
	return cmd
}
