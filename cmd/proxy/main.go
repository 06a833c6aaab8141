package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/server"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(&cfg.Logging, cfg.Server.Env)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, closeStore, err := store.Open(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	// Create and start proxy server
	srv := server.NewProxyServer(cfg, st)

	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Proxy.Port),
		Handler:     srv.Router(),
		ReadTimeout: 30 * time.Second,
		// no write timeout: media streams can run for minutes
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", cfg.Proxy.Port).
			Strs("allowed_hosts", cfg.Proxy.AllowedHosts).
			Msg("Media proxy listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start proxy server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down proxy server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Proxy server forced to shutdown")
	}
	srv.Drain()

	log.Info().Msg("Proxy server exited")
}
