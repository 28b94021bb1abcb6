package metrics

// Metrics CSV output and summary formatting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"timestamp",
	"kind",
	"batch_index",
	"attempt",
	"success",
	"latency_ms",
	"prompt_bytes",
	"reply_bytes",
	"timeout",
	"error",
}

// WriteCSV writes metrics to path, one row per call attempt.
func WriteCSV(path string, metrics []Metric) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		file.Close()
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, m := range metrics {
		record := []string{
			m.Timestamp.Format(time.RFC3339Nano),
			string(m.Kind),
			strconv.Itoa(m.BatchIndex),
			strconv.Itoa(m.Attempt),
			strconv.FormatBool(m.Success),
			fmt.Sprintf("%.3f", m.LatencyMs),
			strconv.Itoa(m.PromptBytes),
			strconv.Itoa(m.ReplyBytes),
			strconv.FormatBool(m.Timeout),
			m.Error,
		}
		if err := w.Write(record); err != nil {
			file.Close()
			return fmt.Errorf("write CSV record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flush CSV: %w", err)
	}
	return file.Close()
}

// FormatSummary formats a summary for human-readable output
func FormatSummary(summary *Summary) string {
	if summary == nil || summary.TotalCalls == 0 {
		return "Model calls: 0\n"
	}
	var buf strings.Builder

	fmt.Fprintf(&buf, "Model calls: %d\n", summary.TotalCalls)
	fmt.Fprintf(&buf, "Successful: %d (%.1f%%)\n",
		summary.SuccessfulCalls,
		float64(summary.SuccessfulCalls)/float64(summary.TotalCalls)*100)
	fmt.Fprintf(&buf, "Failed: %d (%.1f%%)\n",
		summary.FailedCalls,
		float64(summary.FailedCalls)/float64(summary.TotalCalls)*100)
	if summary.TimeoutCount > 0 {
		fmt.Fprintf(&buf, "Timeouts: %d\n", summary.TimeoutCount)
	}

	if summary.SuccessfulCalls > 0 {
		buf.WriteString("\nLatency (successful calls):\n")
		fmt.Fprintf(&buf, "  Min: %.0f ms\n", summary.MinLatencyMs)
		fmt.Fprintf(&buf, "  Max: %.0f ms\n", summary.MaxLatencyMs)
		fmt.Fprintf(&buf, "  Avg: %.0f ms\n", summary.AvgLatencyMs)
		fmt.Fprintf(&buf, "  P50: %.0f ms\n", summary.P50LatencyMs)
		fmt.Fprintf(&buf, "  P90: %.0f ms\n", summary.P90LatencyMs)
		fmt.Fprintf(&buf, "  P99: %.0f ms\n", summary.P99LatencyMs)
	}

	for _, kind := range []Kind{KindBatch, KindSummary} {
		stats, ok := summary.ByKind[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&buf, "%s: %d calls (%d success, %d failed)", kind, stats.Count, stats.Success, stats.Failed)
		if stats.Success > 0 {
			fmt.Fprintf(&buf, ", avg %.0f ms", stats.AvgLatencyMs)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
