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

	"hexcast/internal/auth"
	"hexcast/internal/cache"
	"hexcast/internal/config"
	"hexcast/internal/images"
	"hexcast/internal/llm"
	"hexcast/internal/quota"
	"hexcast/internal/reading"
	"hexcast/internal/server"
	"hexcast/internal/store"
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the hexcast HTTP API",
	Long: `Starts the HTTP API server.

Endpoints:
  POST /api/readings                    Generate a reading (bearer token)
  GET  /api/coordinates                 Derive a coordinate from three numbers
  GET  /api/hexagrams/{parent}/{child}  Fetch stored texts for a coordinate
  GET  /healthz                         Liveness probe`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	texts, err := store.NewTexts(db)
	if err != nil {
		return err
	}
	ledger, err := quota.New(db, cfg.Quota.DefaultDailyLimit)
	if err != nil {
		return err
	}

	client, err := llm.NewClient(context.Background(), llm.Options{
		Provider: llm.Provider(cfg.LLM.Provider),
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.GetLLMTimeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	logger.Info("LLM client ready", zap.String("provider", cfg.LLM.Provider))

	var resolver reading.ImageResolver
	if cfg.Storage.BaseURL != "" {
		resolver = images.NewSigner(images.Config{
			BaseURL: cfg.Storage.BaseURL,
			APIKey:  cfg.Storage.APIKey,
			Bucket:  cfg.Storage.Bucket,
			URLTTL:  cfg.GetStorageURLTTL(),
			Timeout: cfg.GetStorageTimeout(),
		})
	} else {
		logger.Info("no image storage configured; readings will carry no image URLs")
	}

	svc := reading.NewService(reading.Deps{
		Quota:  ledger,
		Usage:  ledger,
		Texts:  texts,
		Images: resolver,
		Model:  llm.NewStructuredClient(client),
		Logger: logger,
	})

	var verifier server.TokenVerifier
	if cfg.Identity.BaseURL != "" {
		tokens := cache.New[string](cfg.GetIdentityCacheTTL())
		verifier = auth.NewVerifier(auth.Config{
			BaseURL: cfg.Identity.BaseURL,
			APIKey:  cfg.Identity.APIKey,
			Timeout: cfg.GetIdentityTimeout(),
		}, tokens, logger)
	} else {
		logger.Warn("no identity provider configured; every token maps to one local user")
		verifier = &auth.Static{UserID: "local"}
	}

	srv := server.New(server.Options{
		Readings: svc,
		Texts:    texts,
		Images:   resolver,
		Verifier: verifier,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hexcast API listening", zap.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
