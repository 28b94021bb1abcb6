package errors

// Error taxonomy for the analysis pipeline

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Stage names the pipeline stage an error originated from.
type Stage string

const (
	StageConfig    Stage = "config"
	StageExtract   Stage = "extract"
	StageAnalyze   Stage = "analyze"
	StageSummarize Stage = "summarize"
	StagePersist   Stage = "persist"
)

// ConfigError reports missing or invalid configuration. Fatal, raised before
// any pipeline work begins.
type ConfigError struct {
	Fields []string // offending configuration keys
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "configuration error"
	if len(e.Fields) > 0 {
		msg += fmt.Sprintf(" (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Stage returns StageConfig.
func (e *ConfigError) Stage() Stage { return StageConfig }

// ExtractionReason classifies capture extraction failures.
type ExtractionReason string

const (
	ReasonUnreadable   ExtractionReason = "capture file unreadable"
	ReasonToolMissing  ExtractionReason = "capture tool not found"
	ReasonToolFailed   ExtractionReason = "capture tool failed"
	ReasonMalformedOut ExtractionReason = "capture tool output malformed"
)

// ExtractionError reports a capture file or capture tool problem. Fatal,
// aborts the run before batching.
type ExtractionError struct {
	Path     string
	Reason   ExtractionReason
	ExitCode int    // tool exit status, when Reason is ReasonToolFailed
	Stderr   string // trimmed tool stderr
	Err      error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract packets from %s: %s", e.Path, e.Reason)
	if e.Reason == ReasonToolFailed {
		msg += fmt.Sprintf(" (exit code %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Stage returns StageExtract.
func (e *ExtractionError) Stage() Stage { return StageExtract }

// AnalysisError reports that one batch could not be analyzed after retries.
// The pipeline records it as a placeholder and continues.
type AnalysisError struct {
	BatchIndex int
	Attempts   int
	Err        error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyze batch %d failed after %d attempt(s): %v", e.BatchIndex, e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Stage returns StageAnalyze.
func (e *AnalysisError) Stage() Stage { return StageAnalyze }

// SummaryError reports that the final aggregation call failed after retries.
// Fatal, no output is produced.
type SummaryError struct {
	Attempts   int
	StatusCode int // HTTP status of the last model reply, 0 if none
	Err        error
}

func (e *SummaryError) Error() string {
	return fmt.Sprintf("summarize analyses failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *SummaryError) Unwrap() error { return e.Err }

// Stage returns StageSummarize.
func (e *SummaryError) Stage() Stage { return StageSummarize }

// PersistenceError reports that an output artifact could not be written.
// The in-memory result remains valid.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Stage returns StagePersist.
func (e *PersistenceError) Stage() Stage { return StagePersist }

// StageOf returns the stage of the first taxonomy error in err's chain.
func StageOf(err error) (Stage, bool) {
	var staged interface{ Stage() Stage }
	if stderrors.As(err, &staged) {
		return staged.Stage(), true
	}
	return "", false
}

// Exit statuses used by the CLI.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitExtract   = 3
	ExitSummary   = 4
	ExitCancelled = 130
)

// ExitCode maps err to a process exit status. Per-batch analysis and
// persistence failures do not make a run fail.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if stderrors.Is(err, ErrCancelled) {
		return ExitCancelled
	}
	stage, ok := StageOf(err)
	if !ok {
		return ExitFailure
	}
	switch stage {
	case StageConfig:
		return ExitConfig
	case StageExtract:
		return ExitExtract
	case StageSummarize:
		return ExitSummary
	case StageAnalyze, StagePersist:
		return ExitOK
	}
	return ExitFailure
}

// ErrCancelled marks a run interrupted before a summary was produced.
var ErrCancelled = stderrors.New("run cancelled")

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Join returns an error that wraps the given errors.
func Join(errs ...error) error { return stderrors.Join(errs...) }

// New returns an error with the given text.
func New(text string) error { return stderrors.New(text) }
