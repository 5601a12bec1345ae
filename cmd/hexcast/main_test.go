package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hexcast/internal/importer"
	"hexcast/internal/store"
)

func TestRunDerive(t *testing.T) {
	logger = zap.NewNop()

	output := captureOutput(t, func() {
		if err := runDerive(&cobra.Command{}, []string{"17", "10", "13"}); err != nil {
			t.Errorf("runDerive returned error: %v", err)
		}
	})

	if !strings.Contains(output, "1-2") {
		t.Fatalf("expected parent 1-2 in output, got: %s", output)
	}
}

func TestRunDeriveNegativeWraps(t *testing.T) {
	logger = zap.NewNop()

	output := captureOutput(t, func() {
		if err := runDerive(&cobra.Command{}, []string{"-1", "-1", "-1"}); err != nil {
			t.Errorf("runDerive returned error: %v", err)
		}
	})

	if !strings.Contains(output, "7-7") {
		t.Fatalf("expected parent 7-7 in output, got: %s", output)
	}
	if !strings.Contains(output, "5") {
		t.Fatalf("expected child 5 in output, got: %s", output)
	}
}

func TestRunDeriveRejectsNonInteger(t *testing.T) {
	logger = zap.NewNop()

	if err := runDerive(&cobra.Command{}, []string{"a", "2", "3"}); err == nil {
		t.Fatal("expected error for non-integer argument")
	}
}

// writeTestConfig points the global config at a temp database with the mock
// provider and scrubs the env vars that would override it.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HEXCAST_LLM_PROVIDER", "")
	t.Setenv("HEXCAST_DB", "")

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "hexcast.db")
	content := fmt.Sprintf("database_path: %s\nllm:\n  provider: mock\n", dbPath)

	path := filepath.Join(dir, "hexcast.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfgPath = path
	return dbPath
}

func TestRunCastMock(t *testing.T) {
	logger = zap.NewNop()
	writeTestConfig(t)

	castFirst, castSecond, castThird = 17, 10, 13
	castQuestion = "test question"
	castLanguage = ""
	castUser = "tester"
	castImage = false
	castMock = true

	output := captureOutput(t, func() {
		if err := runCast(&cobra.Command{}, nil); err != nil {
			t.Errorf("runCast returned error: %v", err)
		}
	})

	if !strings.Contains(output, "1-2") {
		t.Fatalf("expected coordinate 1-2 in output, got: %s", output)
	}
	if !strings.Contains(output, "乾") {
		t.Fatalf("expected mock hexagram name in output, got: %s", output)
	}
}

func TestRunImport(t *testing.T) {
	logger = zap.NewNop()
	dbPath := writeTestConfig(t)

	records := `records:
  - parent: "1-2"
    child: "0"
    parent_text: "body"
    child_text: "line"
  - parent: "1-2"
    child: "1"
    parent_text: "body"
    child_text: "second line"
`
	recordsPath := filepath.Join(t.TempDir(), "records.yaml")
	if err := os.WriteFile(recordsPath, []byte(records), 0644); err != nil {
		t.Fatalf("failed to write records: %v", err)
	}

	importWorkers = 1
	importRetries = 0

	_ = captureOutput(t, func() {
		if err := runImport(&cobra.Command{}, []string{recordsPath}); err != nil {
			t.Errorf("runImport returned error: %v", err)
		}
	})

	db, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db.Close()
	texts, err := store.NewTexts(db)
	if err != nil {
		t.Fatalf("failed to open text store: %v", err)
	}

	rec, err := texts.Get(context.Background(), "1-2", "1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !rec.Found || rec.ChildText != "second line" {
		t.Fatalf("imported record not found, got %+v", rec)
	}
}

func TestRunExtractToFile(t *testing.T) {
	logger = zap.NewNop()

	page := `<html><body>
<p>Body of the hexagram.</p>
<p>0. Line zero.</p>
<p>1. Line one.</p>
</body></html>`

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "page.html")
	if err := os.WriteFile(srcPath, []byte(page), 0644); err != nil {
		t.Fatalf("failed to write page: %v", err)
	}

	extractParent = "1-2"
	extractOut = filepath.Join(dir, "out.yaml")

	_ = captureOutput(t, func() {
		if err := runExtract(&cobra.Command{}, []string{srcPath}); err != nil {
			t.Errorf("runExtract returned error: %v", err)
		}
	})

	records, err := importer.LoadRecords(extractOut)
	if err != nil {
		t.Fatalf("failed to load extracted records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ParentText != "Body of the hexagram." {
		t.Fatalf("unexpected parent text: %q", records[0].ParentText)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	origErr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, rOut)
		_, _ = io.Copy(&buf, rErr)
		done <- buf.String()
	}()

	fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = origOut
	os.Stderr = origErr
	return <-done
}
