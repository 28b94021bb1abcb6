package report

import (
	"strings"
	"testing"
)

func TestRenderDetails(t *testing.T) {
	r := sampleResult()
	got := RenderDetails(r.Details)

	want := "=== BATCH 1/3 (packets 1-10) ===\n" +
		"DNS queries to example.com\n\n" +
		"=== BATCH 2/3 (packets 11-20) [FAILED] ===\n" +
		"[analysis unavailable for batch 2/3 (packets 11-20): 429 Too Many Requests]\n\n" +
		"=== BATCH 3/3 (packets 21-25) ===\n" +
		"TLS handshake to 10.0.0.5:443"
	if got != want {
		t.Errorf("RenderDetails() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderDetailsEmpty(t *testing.T) {
	if got := RenderDetails(nil); got != "" {
		t.Errorf("RenderDetails(nil) = %q, want empty", got)
	}
}

func TestPlaceholder(t *testing.T) {
	p := Placeholder(4, 16, 31, 40, 3, errTest("unauthorized"))
	if !p.Failed || p.Error != "unauthorized" || p.Attempts != 3 {
		t.Errorf("Placeholder() = %+v", p)
	}
	if !strings.Contains(p.Text, "batch 4/16") || !strings.Contains(p.Text, "unauthorized") {
		t.Errorf("Text = %q", p.Text)
	}

	unknown := Placeholder(1, 1, 1, 1, 1, nil)
	if unknown.Error != "unknown error" {
		t.Errorf("nil cause Error = %q", unknown.Error)
	}
}

func TestRenderSummary(t *testing.T) {
	if got := RenderSummary(nil); got != "" {
		t.Errorf("RenderSummary(nil) = %q", got)
	}
	if got := RenderSummary(&Result{}); got != "" {
		t.Errorf("RenderSummary(no summary) = %q", got)
	}
	r := &Result{Summary: &SummaryResult{Text: "all quiet"}}
	if got := RenderSummary(r); got != "all quiet" {
		t.Errorf("RenderSummary() = %q", got)
	}

	none := NoPackets()
	if !none.Empty || none.Text != NoPacketsText {
		t.Errorf("NoPackets() = %+v", none)
	}
}

func TestRenderHTML(t *testing.T) {
	page := string(RenderHTML(sampleResult()))
	for _, want := range []string{
		"<html",
		"<title>pcapexplain: trace.pcap</title>",
		"<strong>DNS</strong>",
		"Batch 2/3 (packets 11-20) - failed",
		"TLS handshake",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestResultCounters(t *testing.T) {
	r := sampleResult()
	if r.FailedBatches() != 1 {
		t.Errorf("FailedBatches() = %d, want 1", r.FailedBatches())
	}
	if r.Duration().Seconds() != 90 {
		t.Errorf("Duration() = %v", r.Duration())
	}
	if (&Result{}).Duration() != 0 {
		t.Error("Duration() of an unstarted run should be 0")
	}
}
