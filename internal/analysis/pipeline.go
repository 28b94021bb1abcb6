package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tturner/pcapexplain/internal/batch"
	"github.com/tturner/pcapexplain/internal/capture"
	"github.com/tturner/pcapexplain/internal/errors"
	"github.com/tturner/pcapexplain/internal/logging"
	"github.com/tturner/pcapexplain/internal/metrics"
	"github.com/tturner/pcapexplain/internal/progress"
	"github.com/tturner/pcapexplain/internal/report"
)

// Extractor turns a capture file into packet records.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]capture.PacketRecord, error)
}

// Pipeline runs extraction, batching, per-batch analysis and aggregation.
type Pipeline struct {
	Source     Extractor
	Analyzer   *Analyzer
	Aggregator *Aggregator
	BatchSize  int
	Workers    int // >1 analyzes batches concurrently; results keep batch order
	Model      string
	Metrics    *metrics.Sink // summarized into Result.Calls
	Observers  []progress.Observer
	Logger     *logging.Logger
	Now        func() time.Time
}

// Request names the capture to analyze and the optional question.
type Request struct {
	CaptureFile string
	Question    string
}

// Run executes one analysis. The returned Result is never nil. On success
// Result.Summary is set, even if some batches failed and hold placeholders.
// On cancellation the error wraps errors.ErrCancelled, Details holds the
// batches finished so far and Summary is nil.
func (p *Pipeline) Run(ctx context.Context, req Request) (*report.Result, error) {
	now := p.Now
	if now == nil {
		now = time.Now
	}
	result := &report.Result{
		RunID:       uuid.NewString(),
		CaptureFile: req.CaptureFile,
		Question:    req.Question,
		Model:       p.Model,
		BatchSize:   p.BatchSize,
		Details:     []report.AnalysisResult{},
		StartedAt:   now(),
	}
	logger := loggerOrNop(p.Logger).With("run_id", result.RunID)
	if p.Metrics != nil {
		defer func() { result.Calls = p.Metrics.GetSummary() }()
	}

	records, err := p.Source.Extract(ctx, req.CaptureFile)
	if err != nil {
		if ctx.Err() != nil {
			return result, cancelled(ctx)
		}
		return result, err
	}
	result.PacketCount = len(records)

	batches, err := batch.Plan(records, p.BatchSize)
	if err != nil {
		return result, err
	}
	logger.Info("%d packet(s) in %d batch(es) of up to %d", len(records), len(batches), p.BatchSize)

	if len(batches) == 0 {
		logger.Info("no packets found, skipping analysis")
		summary := report.NoPackets()
		result.Summary = &summary
		result.FinishedAt = now()
		return result, nil
	}

	tracker := progress.NewTracker(len(batches), p.Observers...)
	details := make([]report.AnalysisResult, len(batches))

	analyzeOne := func(ctx context.Context, i int) error {
		b := batches[i]
		res, err := p.Analyzer.Analyze(ctx, b, req.Question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var aErr *errors.AnalysisError
			attempts := 0
			if errors.As(err, &aErr) {
				attempts = aErr.Attempts
			}
			logger.Error("batch %s failed, recording placeholder: %v", b.Label(), err)
			res = report.Placeholder(b.Index, b.Total, b.FirstPacket(), b.LastPacket(), attempts, unwrapAnalysis(err))
		}
		details[i] = res
		tracker.Advance()
		return nil
	}

	if p.Workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.Workers)
		for i := range batches {
			if gctx.Err() != nil {
				break
			}
			i := i
			g.Go(func() error { return analyzeOne(gctx, i) })
		}
		err = g.Wait()
	} else {
		for i := range batches {
			if err = analyzeOne(ctx, i); err != nil {
				break
			}
		}
	}
	if err != nil || ctx.Err() != nil {
		result.Details = completed(details)
		logger.Info("cancelled after %d of %d batch(es)", tracker.Snapshot().Completed, len(batches))
		return result, cancelled(ctx)
	}
	result.Details = details

	if failed := result.FailedBatches(); failed > 0 {
		logger.Info("%d of %d batch(es) failed; summarizing the rest", failed, len(batches))
	}
	logger.Verbose("requesting final summary")
	summary, err := p.Aggregator.Summarize(ctx, details, req.Question)
	if err != nil {
		if ctx.Err() != nil {
			return result, cancelled(ctx)
		}
		return result, err
	}
	result.Summary = &summary
	result.FinishedAt = now()
	return result, nil
}

func cancelled(ctx context.Context) error {
	cause := ctx.Err()
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", errors.ErrCancelled, cause)
}

// completed returns the finished results in batch order.
func completed(details []report.AnalysisResult) []report.AnalysisResult {
	out := make([]report.AnalysisResult, 0, len(details))
	for _, d := range details {
		if d.Index != 0 {
			out = append(out, d)
		}
	}
	return out
}

// unwrapAnalysis strips the AnalysisError wrapper so placeholders carry
// the model error itself.
func unwrapAnalysis(err error) error {
	var aErr *errors.AnalysisError
	if errors.As(err, &aErr) && aErr.Err != nil {
		return aErr.Err
	}
	return err
}
