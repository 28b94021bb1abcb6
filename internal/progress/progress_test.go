package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      string
	}{
		{"start", 0, 16, "[>" + strings.Repeat("-", 49) + "] 0/16 (0.0%)"},
		{"partial", 3, 16, "[" + strings.Repeat("=", 9) + ">" + strings.Repeat("-", 40) + "] 3/16 (18.8%)"},
		{"half", 5, 10, "[" + strings.Repeat("=", 25) + ">" + strings.Repeat("-", 24) + "] 5/10 (50.0%)"},
		{"complete", 16, 16, "[" + strings.Repeat("=", 50) + "] 16/16 (100.0%)"},
		{"over", 20, 16, "[" + strings.Repeat("=", 50) + "] 16/16 (100.0%)"},
		{"zero total", 0, 0, "[>" + strings.Repeat("-", 49) + "] 0/0 (0.0%)"},
		{"negative", -2, 4, "[>" + strings.Repeat("-", 49) + "] 0/4 (0.0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Render(tt.completed, tt.total)
			if got != tt.want {
				t.Errorf("Render(%d, %d) =\n%q\nwant\n%q", tt.completed, tt.total, got, tt.want)
			}
			if again := Render(tt.completed, tt.total); again != got {
				t.Error("Render is not idempotent")
			}
		})
	}
}

type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) Update(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func TestTrackerScenario(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(16, rec)
	for i := 0; i < 16; i++ {
		tr.Advance()
	}

	if len(rec.states) != 16 {
		t.Fatalf("updates = %d, want 16", len(rec.states))
	}
	done := 0
	for i, s := range rec.states {
		if s.Completed != i+1 || s.Total != 16 {
			t.Errorf("update %d = %+v", i, s)
		}
		if Render(s.Completed, s.Total) == Render(16, 16) {
			done++
		}
	}
	if done != 1 {
		t.Errorf("16/16 rendered %d times, want exactly once", done)
	}
	if !tr.Snapshot().Done() {
		t.Error("tracker should be done")
	}
}

func TestTrackerClamps(t *testing.T) {
	tr := NewTracker(2)
	tr.Advance()
	tr.Advance()
	if s := tr.Advance(); s.Completed != 2 {
		t.Errorf("Completed = %d, want 2", s.Completed)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	rec := &recorder{}
	tr := NewTracker(100, rec)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Advance()
		}()
	}
	wg.Wait()

	if tr.Snapshot().Completed != 100 {
		t.Errorf("Completed = %d, want 100", tr.Snapshot().Completed)
	}
	for i, s := range rec.states {
		if s.Completed != i+1 {
			t.Fatalf("observer saw %d at position %d; updates must be serialized", s.Completed, i)
		}
	}
}

func newTestReporter(description string, lines bool) (*Reporter, *bytes.Buffer) {
	var buf bytes.Buffer
	r := NewReporter(&buf, description)
	r.lines = lines
	return r, &buf
}

func TestReporter_BarMode(t *testing.T) {
	r, buf := newTestReporter("Analyzing", false)

	r.Update(State{Completed: 1, Total: 2})
	if got := buf.String(); got != "\rAnalyzing "+Render(1, 2) {
		t.Errorf("output = %q", got)
	}

	r.Update(State{Completed: 2, Total: 2})
	if !strings.HasSuffix(buf.String(), Render(2, 2)+"\n") {
		t.Errorf("completion should end the line, got %q", buf.String())
	}

	buf.Reset()
	r.Finish()
	if buf.Len() > 0 {
		t.Error("Finish after completion should not add another newline")
	}
}

func TestReporter_LineMode(t *testing.T) {
	r, buf := newTestReporter("", true)
	r.Update(State{Completed: 1, Total: 3})
	r.Update(State{Completed: 2, Total: 3})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[1] != Render(2, 3) {
		t.Errorf("line = %q", lines[1])
	}
	if strings.Contains(buf.String(), "\r") {
		t.Error("line mode should not use carriage returns")
	}
}

func TestReporter_Disable(t *testing.T) {
	r, buf := newTestReporter("test", false)

	r.Disable()
	r.Update(State{Completed: 1, Total: 4})
	r.Finish()
	if buf.Len() > 0 {
		t.Error("disabled reporter should not produce output")
	}
}

func TestReporter_FinishPendingLine(t *testing.T) {
	r, buf := newTestReporter("", false)
	r.Update(State{Completed: 1, Total: 4})
	r.Finish()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Finish should end a pending line")
	}
}

func TestReporter_NonTerminalDefaultsToLines(t *testing.T) {
	r := NewReporter(&bytes.Buffer{}, "")
	if !r.lines {
		t.Error("a buffer is not a terminal; expected line mode")
	}
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("IsTerminal(buffer) should be false")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "500ms"},
		{0, "0ms"},
		{1500 * time.Millisecond, "1.5s"},
		{30 * time.Second, "30.0s"},
		{90 * time.Second, "1m30s"},
		{5*time.Minute + 15*time.Second, "5m15s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := FormatDuration(tt.d)
			if got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
