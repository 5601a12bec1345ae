package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hexcast/internal/config"
	"hexcast/internal/images"
	"hexcast/internal/llm"
	"hexcast/internal/quota"
	"hexcast/internal/reading"
	"hexcast/internal/store"
)

var (
	castFirst    int
	castSecond   int
	castThird    int
	castQuestion string
	castLanguage string
	castUser     string
	castImage    bool
	castMock     bool
)

// castCmd generates one reading locally, without the HTTP server
var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "Generate a single reading locally",
	Long: `Runs the full reading pipeline once against the local database and
prints the result.

Example:
  hexcast cast --first 17 --second 10 --third 13 --question "Should I take the offer?"
  hexcast cast --first 3 --second 5 --third 1 --mock`,
	RunE: runCast,
}

func init() {
	castCmd.Flags().IntVar(&castFirst, "first", 0, "First number (required)")
	castCmd.Flags().IntVar(&castSecond, "second", 0, "Second number (required)")
	castCmd.Flags().IntVar(&castThird, "third", 0, "Third number (required)")
	castCmd.Flags().StringVarP(&castQuestion, "question", "q", "", "Question to put to the reading")
	castCmd.Flags().StringVarP(&castLanguage, "language", "l", "", "Reading language (default zh)")
	castCmd.Flags().StringVar(&castUser, "user", "local", "User ID to meter the reading under")
	castCmd.Flags().BoolVar(&castImage, "image", false, "Resolve a signed hexagram image URL")
	castCmd.Flags().BoolVar(&castMock, "mock", false, "Use the mock model instead of a provider")
	castCmd.MarkFlagRequired("first")
	castCmd.MarkFlagRequired("second")
	castCmd.MarkFlagRequired("third")
}

func runCast(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if castMock {
		cfg.LLM.Provider = "mock"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

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

	client, err := llm.NewClient(ctx, llm.Options{
		Provider: llm.Provider(cfg.LLM.Provider),
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  cfg.GetLLMTimeout(),
	})
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}

	var resolver reading.ImageResolver
	if cfg.Storage.BaseURL != "" {
		resolver = images.NewSigner(images.Config{
			BaseURL: cfg.Storage.BaseURL,
			APIKey:  cfg.Storage.APIKey,
			Bucket:  cfg.Storage.Bucket,
			URLTTL:  cfg.GetStorageURLTTL(),
			Timeout: cfg.GetStorageTimeout(),
		})
	}

	svc := reading.NewService(reading.Deps{
		Quota:  ledger,
		Usage:  ledger,
		Texts:  texts,
		Images: resolver,
		Model:  llm.NewStructuredClient(client),
		Logger: logger,
	})

	result, err := svc.GenerateReading(ctx, reading.Request{
		First:     castFirst,
		Second:    castSecond,
		Third:     castThird,
		Question:  castQuestion,
		Language:  castLanguage,
		UserID:    castUser,
		WithImage: castImage,
	})
	if err != nil && !errors.Is(err, reading.ErrUsageLog) {
		return err
	}

	fmt.Println(renderReading(result))
	if err != nil {
		fmt.Println(warnStyle.Render("warning: usage logging failed; this reading may not count against your quota"))
	}
	return nil
}
