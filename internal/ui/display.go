package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tturner/pcapexplain/internal/batch"
	"github.com/tturner/pcapexplain/internal/progress"
	"github.com/tturner/pcapexplain/internal/report"
)

// Display writes run results to a terminal.
type Display struct {
	out    io.Writer
	styles Styles
}

// NewDisplay creates a display writing to w.
func NewDisplay(w io.Writer) *Display {
	return &Display{
		out:    w,
		styles: NewStyles(lipgloss.NewRenderer(w), DefaultTheme),
	}
}

// Overview renders the run header: capture, packets, batches and timing.
func (d *Display) Overview(r *report.Result) string {
	s := d.styles
	batches := batch.Count(r.PacketCount, r.BatchSize)

	rows := []string{
		s.Title.Render("pcapexplain: " + filepath.Base(r.CaptureFile)),
		row(s, "Packets", humanize.Comma(int64(r.PacketCount))),
		row(s, "Batches", fmt.Sprintf("%d of up to %d packets", batches, r.BatchSize)),
	}
	if failed := r.FailedBatches(); failed > 0 {
		rows = append(rows, row(s, "Failed", s.Warning.Render(fmt.Sprintf("%d batch(es) replaced by placeholders", failed))))
	}
	if r.Question != "" {
		rows = append(rows, row(s, "Question", r.Question))
	}
	if r.Model != "" {
		rows = append(rows, row(s, "Model", r.Model))
	}
	if dur := r.Duration(); dur > 0 {
		rows = append(rows, row(s, "Elapsed", progress.FormatDuration(dur)))
	}
	return s.Panel.Render(strings.Join(rows, "\n"))
}

// Result prints the overview, the summary text and the saved files.
func (d *Display) Result(r *report.Result, saved []string) {
	s := d.styles
	fmt.Fprintln(d.out, d.Overview(r))
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, s.Title.Render("Summary"))
	fmt.Fprintln(d.out, strings.TrimRight(report.RenderSummary(r), "\n"))
	if len(saved) > 0 {
		fmt.Fprintln(d.out)
		for _, path := range saved {
			fmt.Fprintf(d.out, "%s %s\n", CheckIcon(true, s), s.Dim.Render("saved "+path))
		}
	}
}

// Details prints the per-batch explanations. Used when they could not be
// written to disk.
func (d *Display) Details(r *report.Result) {
	if len(r.Details) == 0 {
		return
	}
	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, d.styles.Title.Render("Details"))
	fmt.Fprintln(d.out, report.RenderDetails(r.Details))
}

// Warn prints a one-line warning.
func (d *Display) Warn(format string, args ...any) {
	fmt.Fprintf(d.out, "%s %s\n", d.styles.Warning.Render("!"), fmt.Sprintf(format, args...))
}

// Error prints err, typically a UserFriendlyError, with a styled prefix.
func (d *Display) Error(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(d.out, "%s %s\n", d.styles.Error.Render("Error:"), err.Error())
}

func row(s Styles, label, value string) string {
	return s.Label.Render(label) + s.Base.Render(value)
}
