package ui

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/atotto/clipboard"

	"github.com/tturner/pcapexplain/internal/report"
)

func sampleResult() *report.Result {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &report.Result{
		CaptureFile: "/captures/office.pcapng",
		Question:    "Who talks to 10.0.0.5?",
		Model:       "gpt-4o-mini",
		PacketCount: 1256,
		BatchSize:   10,
		Summary:     &report.SummaryResult{Text: "Mostly DNS and TLS.\n"},
		Details: []report.AnalysisResult{
			{Index: 1, Total: 2, FirstPacket: 1, LastPacket: 10, Text: "DNS lookups"},
			report.Placeholder(2, 2, 11, 20, 4, stderrors.New("503 overloaded")),
		},
		StartedAt:  start,
		FinishedAt: start.Add(95 * time.Second),
	}
}

func TestDisplayResult(t *testing.T) {
	var buf bytes.Buffer
	NewDisplay(&buf).Result(sampleResult(), []string{"out/summary.txt", "out/details.txt"})
	got := buf.String()

	for _, want := range []string{
		"pcapexplain: office.pcapng",
		"1,256",
		"126 of up to 10 packets",
		"1 batch(es) replaced by placeholders",
		"Who talks to 10.0.0.5?",
		"gpt-4o-mini",
		"1m35s",
		"Mostly DNS and TLS.",
		"saved out/summary.txt",
		"saved out/details.txt",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "DNS lookups") {
		t.Error("Result should not print batch details")
	}
}

func TestDisplayDetails(t *testing.T) {
	var buf bytes.Buffer
	NewDisplay(&buf).Details(sampleResult())
	got := buf.String()
	if !strings.Contains(got, "=== BATCH 1/2 (packets 1-10) ===\nDNS lookups") {
		t.Errorf("details = %q", got)
	}
	if !strings.Contains(got, "=== BATCH 2/2 (packets 11-20) [FAILED] ===") {
		t.Errorf("details missing failed header: %q", got)
	}

	buf.Reset()
	NewDisplay(&buf).Details(&report.Result{})
	if buf.Len() != 0 {
		t.Errorf("empty details printed %q", buf.String())
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	d := NewDisplay(&buf)
	d.Error(nil)
	if buf.Len() != 0 {
		t.Error("nil error should print nothing")
	}
	d.Error(stderrors.New("boom"))
	if !strings.Contains(buf.String(), "Error:") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestOverviewOmitsEmptyFields(t *testing.T) {
	r := &report.Result{CaptureFile: "a.pcap", PacketCount: 0, BatchSize: 10}
	got := NewDisplay(&bytes.Buffer{}).Overview(r)
	for _, unwanted := range []string{"Failed", "Question", "Model", "Elapsed"} {
		if strings.Contains(got, unwanted) {
			t.Errorf("overview should omit %s:\n%s", unwanted, got)
		}
	}
	if !strings.Contains(got, "0 of up to 10 packets") {
		t.Errorf("overview = %s", got)
	}
}

func TestCopyText(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard on this system")
	}
	orig := writeClipboard
	defer func() { writeClipboard = orig }()

	var copied string
	writeClipboard = func(text string) error {
		copied = text
		return nil
	}
	if err := CopyText("summary"); err != nil {
		t.Fatalf("CopyText() error = %v", err)
	}
	if copied != "summary" {
		t.Errorf("copied %q", copied)
	}

	writeClipboard = func(string) error { return stderrors.New("no display") }
	if err := CopyText("x"); err == nil || !strings.Contains(err.Error(), "no display") {
		t.Errorf("CopyText() error = %v", err)
	}
}
