package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitelint/internal/model"
	"github.com/nao1215/sitelint/internal/walker"
)

// DefaultConcurrency is the number of files processed at once when no
// concurrency is configured.
const DefaultConcurrency = 8

// BatchProcessor processes many files concurrently, one pipeline per file.
type BatchProcessor struct {
	// pipelineFactory creates a new pipeline for each file.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of files processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of files processed at once.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor. pipelineFactory is called
// once per file so that no state is shared between files.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
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

// ProcessBatch runs the pipeline over every file and returns one result
// per file in input order. A file whose pipeline fails keeps its error on
// its result; the batch itself only fails when ctx is cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, files []walker.File) ([]*model.FileResult, error) {
	bp.logger.Debug("starting batch processing",
		"total_files", len(files),
		"concurrency", bp.concurrency,
		"steps", bp.pipelineFactory().StepNames(),
	)
	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, file := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := model.NewFileResult(file.RelPath, file.AbsPath)
			results[i] = result
			bp.run(ctx, result)
			return nil
		})
	}

	err := g.Wait()

	// Files never started because of cancellation still get a result.
	for i, file := range files {
		if results[i] == nil {
			results[i] = model.NewFileResult(file.RelPath, file.AbsPath)
			results[i].SetError(context.Canceled)
		}
	}

	bp.logger.Debug("batch processing complete",
		"total_files", len(files),
		"elapsed", time.Since(startTime),
	)
	return results, err
}

// run executes one pipeline and turns a panic into a file error.
func (bp *BatchProcessor) run(ctx context.Context, result *model.FileResult) {
	defer func() {
		if r := recover(); r != nil {
			bp.logger.Error("pipeline panicked", "file", result.File, "panic", r)
			result.SetError(fmt.Errorf("internal error: %v", r))
		}
	}()

	if err := bp.pipelineFactory().Execute(ctx, result); err != nil {
		bp.logger.Debug("file failed", "file", result.File, "error", err)
	}
}
