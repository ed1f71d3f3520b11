package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/config"
	"github.com/young1lin/exa-bridge/internal/exa"
	"github.com/young1lin/exa-bridge/internal/handler"
	"github.com/young1lin/exa-bridge/internal/search"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search and webset HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		// Override config with command line flags
		if port > 0 {
			cfg.Server.Port = port
		}

		logger.Info("starting server",
			zap.String("version", Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
		)

		return startServer(cfg)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides settings)")
}

func startServer(cfg *config.Config) error {
	client := exa.NewClient(&cfg.Provider)
	poller, closeJournal, err := newPoller(cfg, client)
	if err != nil {
		return err
	}
	defer closeJournal()

	api := handler.NewHandler(cfg, search.NewService(client), client, poller)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	fmt.Printf(`
exa-bridge %s
  Server:  http://%s:%d
  Health:  http://%s:%d/health
  Provider: %s

`, Version, cfg.Server.Host, cfg.Server.Port, cfg.Server.Host, cfg.Server.Port, cfg.Provider.BaseURL)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	}

	logger.Info("shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
