package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// BarWidth is the number of columns between the brackets.
const BarWidth = 50

// State counts completed batches out of the run's total.
type State struct {
	Completed int
	Total     int
}

// Done reports whether every batch has completed.
func (s State) Done() bool { return s.Total > 0 && s.Completed >= s.Total }

// Render formats k completions out of total as
// "[=====>----] 3/16 (18.8%)". It depends only on its arguments.
func Render(completed, total int) string {
	if completed < 0 {
		completed = 0
	}
	if total > 0 && completed > total {
		completed = total
	}

	var percent float64
	if total > 0 {
		percent = float64(completed) / float64(total) * 100
	}

	filled := 0
	if total > 0 {
		filled = BarWidth * completed / total
	}
	if filled > BarWidth {
		filled = BarWidth
	}

	var bar strings.Builder
	bar.Grow(BarWidth)
	bar.WriteString(strings.Repeat("=", filled))
	if filled < BarWidth {
		bar.WriteByte('>')
		bar.WriteString(strings.Repeat("-", BarWidth-filled-1))
	}

	shown := completed
	if total <= 0 {
		shown = 0
	}
	return fmt.Sprintf("[%s] %d/%d (%.1f%%)", bar.String(), shown, total, percent)
}

// Observer is notified after every progress change.
type Observer interface {
	Update(State)
}

// Tracker owns the progress state of one run. Advance is safe for concurrent
// use; observers are called in the order advances happen.
type Tracker struct {
	mu        sync.Mutex
	state     State
	observers []Observer
}

// NewTracker creates a tracker for total batches.
func NewTracker(total int, observers ...Observer) *Tracker {
	return &Tracker{state: State{Total: total}, observers: observers}
}

// Advance records one completed batch and notifies observers. Completed
// never exceeds Total.
func (t *Tracker) Advance() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Completed < t.state.Total {
		t.state.Completed++
	}
	for _, o := range t.observers {
		o.Update(t.state)
	}
	return t.state
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Reporter writes progress to a terminal. On a TTY it redraws one line with
// "\r"; otherwise it prints one line per update.
type Reporter struct {
	mu          sync.Mutex
	output      io.Writer
	enabled     bool
	lines       bool
	description string
	startTime   time.Time
	last        State
	open        bool // a "\r" line is waiting for its newline
}

// NewReporter creates a reporter writing to w. Line mode is selected when w
// is not a terminal.
func NewReporter(w io.Writer, description string) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	return &Reporter{
		output:      w,
		enabled:     true,
		lines:       !IsTerminal(w),
		description: description,
		startTime:   time.Now(),
	}
}

// Disable disables the reporter
func (r *Reporter) Disable() {
	r.mu.Lock()
	r.enabled = false
	r.mu.Unlock()
}

// Update renders s. Write errors are ignored.
func (r *Reporter) Update(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = s
	if !r.enabled {
		return
	}

	line := Render(s.Completed, s.Total)
	if r.description != "" {
		line = r.description + " " + line
	}

	if r.lines {
		fmt.Fprintln(r.output, line)
		return
	}
	fmt.Fprint(r.output, "\r"+line)
	r.open = true
	if s.Done() {
		fmt.Fprint(r.output, "\n")
		r.open = false
	}
}

// Finish terminates a pending progress line, e.g. after cancellation.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled && r.open {
		fmt.Fprint(r.output, "\n")
		r.open = false
	}
}

// Elapsed returns the time since the reporter was created, formatted.
func (r *Reporter) Elapsed() string {
	return FormatDuration(time.Since(r.startTime))
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}
