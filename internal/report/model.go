package report

import (
	"fmt"
	"time"

	"github.com/tturner/pcapexplain/internal/metrics"
)

// AnalysisResult is the model's explanation of one batch, or a placeholder
// when the batch could not be analyzed.
type AnalysisResult struct {
	Index       int    `json:"index"`
	Total       int    `json:"total"`
	FirstPacket int    `json:"first_packet"`
	LastPacket  int    `json:"last_packet"`
	Text        string `json:"text"`
	Failed      bool   `json:"failed,omitempty"`
	Error       string `json:"error,omitempty"`
	Attempts    int    `json:"attempts"`
}

// Label returns "i/N".
func (r AnalysisResult) Label() string {
	return fmt.Sprintf("%d/%d", r.Index, r.Total)
}

// Placeholder records a batch whose analysis failed. Its Text stands in for
// the model output in details and in the summary prompt.
func Placeholder(index, total, first, last, attempts int, cause error) AnalysisResult {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return AnalysisResult{
		Index:       index,
		Total:       total,
		FirstPacket: first,
		LastPacket:  last,
		Text:        fmt.Sprintf("[analysis unavailable for batch %d/%d (packets %d-%d): %s]", index, total, first, last, msg),
		Failed:      true,
		Error:       msg,
		Attempts:    attempts,
	}
}

// NoPacketsText is the summary of a capture with zero packets.
const NoPacketsText = "No packets found in the capture; nothing to analyze."

// SummaryResult is the consolidated explanation of all batches.
type SummaryResult struct {
	Text  string `json:"text"`
	Empty bool   `json:"empty,omitempty"` // zero-packet capture
}

// NoPackets returns the summary used when the capture has no packets.
func NoPackets() SummaryResult {
	return SummaryResult{Text: NoPacketsText, Empty: true}
}

// Result is everything a run produced: the summary and the per-batch
// details in batch order.
type Result struct {
	RunID       string           `json:"run_id"`
	CaptureFile string           `json:"capture_file"`
	Question    string           `json:"question,omitempty"`
	Model       string           `json:"model,omitempty"`
	PacketCount int              `json:"packet_count"`
	BatchSize   int              `json:"batch_size"`
	Summary     *SummaryResult   `json:"summary,omitempty"` // nil when the run did not finish
	Details     []AnalysisResult `json:"details"`
	Calls       *metrics.Summary `json:"calls,omitempty"` // model call statistics, when collected
	StartedAt   time.Time        `json:"started_at"`
	FinishedAt  time.Time        `json:"finished_at"`
}

// FailedBatches counts placeholder results.
func (r *Result) FailedBatches() int {
	n := 0
	for _, d := range r.Details {
		if d.Failed {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
