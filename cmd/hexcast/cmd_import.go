package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hexcast/internal/config"
	"hexcast/internal/importer"
	"hexcast/internal/store"
)

var (
	importWorkers int
	importRetries int
)

// importCmd loads a batch of text records into the store
var importCmd = &cobra.Command{
	Use:   "import [records-file]",
	Short: "Import hexagram text records from a YAML file",
	Long: `Imports a batch of hexagram text records into the local database.
Records are written by a fixed-size worker pool; failed records are
retried with backoff and reported at the end without aborting the rest.

Example:
  hexcast import texts/records.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importWorkers, "workers", 0, "Worker pool size (default from config)")
	importCmd.Flags().IntVar(&importRetries, "retries", -1, "Retries per failed record (default from config)")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	workers := cfg.Importer.Workers
	if importWorkers > 0 {
		workers = importWorkers
	}
	retries := cfg.Importer.MaxRetries
	if importRetries >= 0 {
		retries = importRetries
	}

	records, err := importer.LoadRecords(args[0])
	if err != nil {
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	logger.Info("importing records",
		zap.Int("count", len(records)),
		zap.Int("workers", workers))

	im := importer.New(texts, importer.Options{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	stats, err := im.Run(ctx, records)
	if err != nil {
		return err
	}

	fmt.Printf("imported %d records, %d failed\n", stats.Imported, stats.Failed)
	if stats.Failed > 0 {
		for _, key := range stats.FailedKeys {
			fmt.Println(warnStyle.Render("  failed: " + key))
		}
		return fmt.Errorf("%d of %d records failed", stats.Failed, len(records))
	}
	return nil
}
