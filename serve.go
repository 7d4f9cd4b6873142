package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		app, err := newApp(connectCtx, cfg)
		if err != nil {
			return eris.Wrap(err, "serve: init app")
		}
		defer app.close(context.Background())

		port := servePort
		if port == "" {
			port = cfg.Port
		}
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           app.routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("crop advisor API listening",
			zap.String("port", port),
			zap.String("env", cfg.Env),
			zap.String("ai_base_url", cfg.AI.APIBaseURL),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
