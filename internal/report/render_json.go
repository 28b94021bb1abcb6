package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tturner/pcapexplain/internal/metrics"
)

// Document is the machine-readable form of a Result written to
// analysis.json.
type Document struct {
	GeneratedAt   string           `json:"generated_at"`
	Version       string           `json:"pcapexplain_version,omitempty"`
	RunID         string           `json:"run_id"`
	CaptureFile   string           `json:"capture_file"`
	Question      string           `json:"question,omitempty"`
	Model         string           `json:"model,omitempty"`
	PacketCount   int              `json:"packet_count"`
	BatchSize     int              `json:"batch_size"`
	BatchCount    int              `json:"batch_count"`
	FailedBatches int              `json:"failed_batches"`
	StartedAt     string           `json:"started_at"`
	FinishedAt    string           `json:"finished_at"`
	DurationMs    int64            `json:"duration_ms"`
	Summary       string           `json:"summary"`
	Details       []AnalysisResult `json:"details"`
	Calls         *metrics.Summary `json:"calls,omitempty"`
}

// NewDocument builds the JSON document for r.
func NewDocument(r *Result, version string) Document {
	details := r.Details
	if details == nil {
		details = []AnalysisResult{}
	}
	return Document{
		GeneratedAt:   FormatTimestamp(time.Now()),
		Version:       version,
		RunID:         r.RunID,
		CaptureFile:   r.CaptureFile,
		Question:      r.Question,
		Model:         r.Model,
		PacketCount:   r.PacketCount,
		BatchSize:     r.BatchSize,
		BatchCount:    len(r.Details),
		FailedBatches: r.FailedBatches(),
		StartedAt:     FormatTimestamp(r.StartedAt),
		FinishedAt:    FormatTimestamp(r.FinishedAt),
		DurationMs:    r.Duration().Milliseconds(),
		Summary:       RenderSummary(r),
		Details:       details,
		Calls:         r.Calls,
	}
}

// WriteJSONFile marshals a report structure to JSON and writes it to disk.
func WriteJSONFile(path string, report any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := WriteJSON(f, report); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteJSON writes a report as JSON to an io.Writer.
func WriteJSON(w io.Writer, report any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
