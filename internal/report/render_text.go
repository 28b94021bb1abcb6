package report

import (
	"fmt"
	"strings"
)

// DetailHeader returns the label line for one batch in details.txt.
func DetailHeader(r AnalysisResult) string {
	header := fmt.Sprintf("=== BATCH %s (packets %d-%d)", r.Label(), r.FirstPacket, r.LastPacket)
	if r.Failed {
		header += " [FAILED]"
	}
	return header + " ==="
}

// RenderDetails concatenates batch results in the order given, each under
// its header, separated by a blank line.
func RenderDetails(details []AnalysisResult) string {
	blocks := make([]string, 0, len(details))
	for _, d := range details {
		blocks = append(blocks, DetailHeader(d)+"\n"+strings.TrimRight(d.Text, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// RenderSummary returns the summary document text.
func RenderSummary(r *Result) string {
	if r == nil || r.Summary == nil {
		return ""
	}
	return r.Summary.Text
}
