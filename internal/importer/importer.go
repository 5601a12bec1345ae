// Package importer loads hexagram text records into the store in bulk,
// either from record files or extracted from source HTML pages.
package importer

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Record is one importable text pair.
type Record struct {
	Parent     string `yaml:"parent" json:"parent"`
	Child      string `yaml:"child" json:"child"`
	ParentText string `yaml:"parent_text" json:"parent_text"`
	ChildText  string `yaml:"child_text" json:"child_text"`
}

// File is the on-disk record batch format.
type File struct {
	Records []Record `yaml:"records" json:"records"`
}

var (
	parentKeyRe = regexp.MustCompile(`^[0-7]-[0-7]$`)
	childKeyRe  = regexp.MustCompile(`^[0-5]$`)
)

// Validate checks the record's coordinate keys.
func (r Record) Validate() error {
	if !parentKeyRe.MatchString(r.Parent) {
		return fmt.Errorf("invalid parent coordinate %q", r.Parent)
	}
	if !childKeyRe.MatchString(r.Child) {
		return fmt.Errorf("invalid child coordinate %q", r.Child)
	}
	return nil
}

// Key returns the record's coordinate as "parent/child".
func (r Record) Key() string {
	return r.Parent + "/" + r.Child
}

// LoadRecords reads a record batch from a YAML (or JSON) file.
func LoadRecords(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse records file: %w", err)
	}
	if len(f.Records) == 0 {
		return nil, fmt.Errorf("records file %s contains no records", path)
	}
	return f.Records, nil
}

// Upserter is the store-side write port.
type Upserter interface {
	Upsert(ctx context.Context, parent, child, parentText, childText string) error
}

// Stats summarizes one import run.
type Stats struct {
	Imported   int
	Failed     int
	FailedKeys []string
}

// Options configures an Importer.
type Options struct {
	Workers    int
	MaxRetries int
	Logger     *zap.Logger
}

// Importer writes record batches through a bounded worker pool. Individual
// record failures are retried with exponential backoff and then recorded
// in the stats; they never abort the rest of the batch.
type Importer struct {
	store      Upserter
	workers    int
	maxRetries int
	log        *zap.Logger
	delay      func(attempt int) time.Duration
}

// New creates an Importer over the given store.
func New(store Upserter, opts Options) *Importer {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Importer{
		store:      store,
		workers:    opts.Workers,
		maxRetries: opts.MaxRetries,
		log:        opts.Logger,
		delay: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}
}

// Run imports all records. The returned error is non-nil only when the
// context is cancelled; per-record failures show up in Stats.
func (im *Importer) Run(ctx context.Context, records []Record) (Stats, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	var mu sync.Mutex
	var stats Stats

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			err := rec.Validate()
			if err == nil {
				err = im.importOne(gctx, rec)
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				im.log.Warn("record import failed",
					zap.String("key", rec.Key()),
					zap.Error(err))
				stats.Failed++
				stats.FailedKeys = append(stats.FailedKeys, rec.Key())
				return nil
			}
			stats.Imported++
			return nil
		})
	}

	err := g.Wait()

	im.log.Info("import run finished",
		zap.Int("imported", stats.Imported),
		zap.Int("failed", stats.Failed))

	return stats, err
}

func (im *Importer) importOne(ctx context.Context, rec Record) error {
	var lastErr error
	for attempt := 0; attempt <= im.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(im.delay(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := im.store.Upsert(ctx, rec.Parent, rec.Child, rec.ParentText, rec.ChildText); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
