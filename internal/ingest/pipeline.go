package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bookfinder-io/bookfinder/internal/domain"
)

// Inserter is the storage contract the pipeline writes through.
type Inserter interface {
	InsertBatch(ctx context.Context, books []domain.Book) (inserted, duplicates int, err error)
}

// Report summarizes one pipeline run.
type Report struct {
	Files      int `json:"files"`
	RowsRead   int `json:"rows_read"`
	Cleaned    int `json:"cleaned"`
	Skipped    int `json:"skipped"` // rows dropped by cleaning
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
}

// Pipeline runs ingestion end to end: scan CSVs, clean, store.
type Pipeline struct {
	store   Inserter
	dataDir string
	logger  *zap.Logger
}

// NewPipeline creates an ingestion pipeline over the given data directory.
func NewPipeline(store Inserter, dataDir string, logger *zap.Logger) *Pipeline {
	return &Pipeline{store: store, dataDir: dataDir, logger: logger}
}

// Run executes the pipeline. A directory with no CSV files yields an
// empty report, not an error.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	raw, files, err := ScanDir(p.dataDir)
	if err != nil {
		return Report{}, fmt.Errorf("ingest csv: %w", err)
	}

	report := Report{Files: len(files), RowsRead: len(raw)}
	if len(raw) == 0 {
		p.logger.Warn("No CSV rows found", zap.String("dir", p.dataDir))
		return report, nil
	}

	cleaned := make([]domain.Book, 0, len(raw))
	for _, row := range raw {
		book, ok := CleanBook(row)
		if !ok {
			report.Skipped++
			continue
		}
		cleaned = append(cleaned, book)
	}
	report.Cleaned = len(cleaned)

	if len(cleaned) > 0 {
		report.Inserted, report.Duplicates, err = p.store.InsertBatch(ctx, cleaned)
		if err != nil {
			return Report{}, fmt.Errorf("store books: %w", err)
		}
	}

	p.logger.Info("Pipeline finished",
		zap.Int("files", report.Files),
		zap.Int("rows", report.RowsRead),
		zap.Int("cleaned", report.Cleaned),
		zap.Int("skipped", report.Skipped),
		zap.Int("inserted", report.Inserted),
		zap.Int("duplicates", report.Duplicates),
	)
	return report, nil
}
