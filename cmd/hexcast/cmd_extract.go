package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"hexcast/internal/importer"
)

var (
	extractParent string
	extractOut    string
)

// extractCmd pulls text records out of a source page
var extractCmd = &cobra.Command{
	Use:   "extract [file-or-url]",
	Short: "Extract hexagram text records from a source HTML page",
	Long: `Extracts the hexagram body text and the six numbered line sections
from a source page and writes them as an importable records file.

Example:
  hexcast extract pages/1-2.html --parent 1-2 --out texts/1-2.yaml
  hexcast extract https://example.com/hexagrams/1-2 --parent 1-2`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractParent, "parent", "", "Parent coordinate the page describes, e.g. 1-2 (required)")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "Output file (default stdout)")
	extractCmd.MarkFlagRequired("parent")
}

func runExtract(cmd *cobra.Command, args []string) error {
	source := args[0]

	var (
		page []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		page, err = fetchPage(source)
	} else {
		page, err = os.ReadFile(source)
	}
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}

	records, err := importer.ExtractRecords(string(page), extractParent)
	if err != nil {
		return err
	}
	logger.Info("extracted records",
		zap.String("parent", extractParent),
		zap.Int("count", len(records)))

	data, err := yaml.Marshal(importer.File{Records: records})
	if err != nil {
		return fmt.Errorf("failed to marshal records: %w", err)
	}

	if extractOut == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(extractOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write records file: %w", err)
	}
	fmt.Printf("wrote %d records to %s\n", len(records), extractOut)
	return nil
}

func fetchPage(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; hexcast/1.0)")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 2<<20)) // 2MB limit
}
