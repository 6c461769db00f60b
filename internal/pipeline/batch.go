package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/cxrbalance/internal/model"
)

// DefaultConcurrency is the default number of datasets analyzed at once.
const DefaultConcurrency = 4

// BatchProcessor analyzes several dataset directories concurrently.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each dataset.
	pipelineFactory func() *Pipeline

	classes     model.ClassTable
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent analyses.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor. Every report is created
// with the given class table.
func NewBatchProcessor(pipelineFactory func() *Pipeline, classes model.ClassTable, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		classes:         classes,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch analyzes every dataset directory and returns one report per
// directory, in input order. A failed analysis keeps its report with the
// error recorded; only cancellation is returned as an error. Entries of
// datasets not started before cancellation are nil.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, dataDirs []string) ([]*model.AnalysisReport, error) {
	bp.logger.Debug("starting batch analysis",
		"datasets", len(dataDirs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	results := make([]*model.AnalysisReport, len(dataDirs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, dir := range dataDirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report := model.NewAnalysisReport(dir, bp.classes)
			err := bp.pipelineFactory().Execute(ctx, report)

			// Each goroutine writes only its own index.
			results[i] = report

			if err != nil {
				bp.logger.Warn("analysis failed",
					"dataset", dir,
					"error", err,
				)
			}
			return nil
		})
	}

	err := g.Wait()

	bp.logger.Debug("batch analysis complete",
		"datasets", len(dataDirs),
		"elapsed", time.Since(startTime),
	)
	return results, err
}

// ProcessBatchWithCallback analyzes the datasets and calls callback for
// each completed report with its index in dataDirs. The callback runs on
// the worker goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	dataDirs []string,
	callback func(report *model.AnalysisReport, index int),
) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, dir := range dataDirs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report := model.NewAnalysisReport(dir, bp.classes)
			_ = bp.pipelineFactory().Execute(ctx, report) //nolint:errcheck // Error is stored in report

			callback(report, i)
			return nil
		})
	}

	return g.Wait()
}
