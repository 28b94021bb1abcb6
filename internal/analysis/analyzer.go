package analysis

import (
	"context"
	"time"

	"github.com/tturner/pcapexplain/internal/batch"
	"github.com/tturner/pcapexplain/internal/errors"
	"github.com/tturner/pcapexplain/internal/llm"
	"github.com/tturner/pcapexplain/internal/logging"
	"github.com/tturner/pcapexplain/internal/metrics"
	"github.com/tturner/pcapexplain/internal/prompt"
	"github.com/tturner/pcapexplain/internal/report"
	"github.com/tturner/pcapexplain/internal/retry"
)

// Analyzer asks the model to explain one batch.
type Analyzer struct {
	Completer llm.Completer
	Prompts   *prompt.Builder
	Policy    retry.Policy  // Retryable defaults to llm.IsTransient
	Metrics   *metrics.Sink // optional; one Metric per attempt
	Logger    *logging.Logger
}

// Analyze returns the model's explanation of b. After the retry budget is
// spent, or on a permanent failure, it returns *errors.AnalysisError. If ctx
// ends, ctx.Err() is returned instead.
func (a *Analyzer) Analyze(ctx context.Context, b batch.Batch, question string) (report.AnalysisResult, error) {
	logger := loggerOrNop(a.Logger)

	text, err := a.Prompts.Batch(b, question)
	if err != nil {
		return report.AnalysisResult{}, &errors.AnalysisError{BatchIndex: b.Index, Err: err}
	}
	logger.Debug("batch %s prompt: %d bytes", b.Label(), len(text))

	policy := withDefaults(a.Policy, func(attempt int, err error, wait time.Duration) {
		logger.Warn("batch %s attempt %d failed: %v; retrying in %s", b.Label(), attempt, err, wait.Round(time.Millisecond))
	})

	var reply string
	attempts, err := policy.Do(ctx, instrument(a.Metrics, metrics.KindBatch, b.Index, text, func(ctx context.Context) (string, error) {
		var callErr error
		reply, callErr = a.Completer.Complete(ctx, text)
		return reply, callErr
	}))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report.AnalysisResult{}, ctxErr
	}
	if err != nil {
		return report.AnalysisResult{}, &errors.AnalysisError{BatchIndex: b.Index, Attempts: attempts, Err: err}
	}

	logger.Verbose("batch %s analyzed (packets %d-%d, %d attempt(s))", b.Label(), b.FirstPacket(), b.LastPacket(), attempts)
	return report.AnalysisResult{
		Index:       b.Index,
		Total:       b.Total,
		FirstPacket: b.FirstPacket(),
		LastPacket:  b.LastPacket(),
		Text:        reply,
		Attempts:    attempts,
	}, nil
}

// Aggregator asks the model to consolidate all batch results.
type Aggregator struct {
	Completer llm.Completer
	Prompts   *prompt.Builder
	Policy    retry.Policy
	Metrics   *metrics.Sink
	Logger    *logging.Logger
}

// Summarize makes one model call over results, in order. Failure after
// retries returns *errors.SummaryError; if ctx ends, ctx.Err() is returned.
func (g *Aggregator) Summarize(ctx context.Context, results []report.AnalysisResult, question string) (report.SummaryResult, error) {
	logger := loggerOrNop(g.Logger)

	text, err := g.Prompts.Summary(results, question)
	if err != nil {
		return report.SummaryResult{}, &errors.SummaryError{Err: err}
	}
	logger.Debug("summary prompt: %d bytes over %d batch(es)", len(text), len(results))

	policy := withDefaults(g.Policy, func(attempt int, err error, wait time.Duration) {
		logger.Warn("summary attempt %d failed: %v; retrying in %s", attempt, err, wait.Round(time.Millisecond))
	})

	var reply string
	attempts, err := policy.Do(ctx, instrument(g.Metrics, metrics.KindSummary, 0, text, func(ctx context.Context) (string, error) {
		var callErr error
		reply, callErr = g.Completer.Complete(ctx, text)
		return reply, callErr
	}))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report.SummaryResult{}, ctxErr
	}
	if err != nil {
		return report.SummaryResult{}, &errors.SummaryError{Attempts: attempts, StatusCode: llm.StatusCode(err), Err: err}
	}
	return report.SummaryResult{Text: reply}, nil
}

// withDefaults fills in the model error classifier and chains onRetry after
// any hook already set on p.
func withDefaults(p retry.Policy, onRetry func(int, error, time.Duration)) retry.Policy {
	if p.Retryable == nil {
		p.Retryable = llm.IsTransient
	}
	prev := p.OnRetry
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		if prev != nil {
			prev(attempt, err, wait)
		}
		onRetry(attempt, err, wait)
	}
	return p
}

// instrument adapts call for retry.Policy.Do, recording each attempt in sink
// when sink is set.
func instrument(sink *metrics.Sink, kind metrics.Kind, batchIndex int, text string, call func(context.Context) (string, error)) func(context.Context) error {
	attempt := 0
	return func(ctx context.Context) error {
		attempt++
		start := time.Now()
		reply, err := call(ctx)
		if sink != nil {
			sink.Record(metrics.NewMetric(kind, batchIndex, attempt, start, len(text), reply, err))
		}
		return err
	}
}

func loggerOrNop(l *logging.Logger) *logging.Logger {
	if l == nil {
		return logging.Nop()
	}
	return l
}
