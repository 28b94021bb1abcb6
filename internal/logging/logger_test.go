package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		l, err := New(Options{Level: LogLevelInfo, Console: &bytes.Buffer{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer l.Close()
		if l.level != LogLevelInfo {
			t.Errorf("level = %d, want %d", l.level, LogLevelInfo)
		}
		if l.file != nil {
			t.Error("file should be nil when no path given")
		}
	})

	t.Run("with file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.log")
		l, err := New(Options{Level: LogLevelDebug, LogFile: path, Console: &bytes.Buffer{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer l.Close()
		if l.file == nil {
			t.Error("file should not be nil")
		}
	})

	t.Run("invalid path", func(t *testing.T) {
		_, err := New(Options{Level: LogLevelInfo, LogFile: "/nonexistent/dir/test.log"})
		if err == nil {
			t.Error("expected error for invalid path")
		}
	})
}

// readLogFile decodes the JSON lines written to the log file.
func readLogFile(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func messages(entries []map[string]any) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		msg, _ := e["message"].(string)
		out = append(out, msg)
	}
	return out
}

func TestLoggerLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(Options{Level: LogLevelInfo, LogFile: path, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Error("error msg")
	l.Info("info msg")
	l.Verbose("verbose msg")
	l.Debug("debug msg")

	l.Close()

	got := strings.Join(messages(readLogFile(t, path)), "|")
	if !strings.Contains(got, "error msg") {
		t.Error("log should contain error message")
	}
	if !strings.Contains(got, "info msg") {
		t.Error("log should contain info message")
	}
	if strings.Contains(got, "verbose msg") {
		t.Error("log should NOT contain verbose message at Info level")
	}
	if strings.Contains(got, "debug msg") {
		t.Error("log should NOT contain debug message at Info level")
	}
}

func TestLoggerSilentLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	var console bytes.Buffer
	l, err := New(Options{Level: LogLevelSilent, LogFile: path, Console: &console})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Error("should not appear")
	l.Info("should not appear")
	l.Close()

	data, _ := os.ReadFile(path)
	if len(strings.TrimSpace(string(data))) > 0 {
		t.Error("silent logger should produce no output")
	}
	if console.Len() > 0 {
		t.Error("silent logger should not write to the console")
	}
}

func TestLoggerDebugLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(Options{Level: LogLevelDebug, LogFile: path, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Error("e")
	l.Info("i")
	l.Verbose("v")
	l.Debug("d")
	l.Close()

	got := messages(readLogFile(t, path))
	want := []string{"e", "i", "v", "d"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("messages = %v, want %v", got, want)
	}
}

func TestLoggerConsoleOutput(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{Level: LogLevelInfo, Console: &console, NoColor: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer l.Close()

	l.Info("extracted %d packets", 156)
	out := console.String()
	if !strings.Contains(out, "INF") || !strings.Contains(out, "extracted 156 packets") {
		t.Errorf("console output = %q", out)
	}
}

func TestLoggerWith(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	l, err := New(Options{Level: LogLevelInfo, LogFile: path, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	child := l.With("run_id", "abc-123")
	child.Info("batch done")
	l.Close()

	entries := readLogFile(t, path)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0]["run_id"] != "abc-123" {
		t.Errorf("run_id = %v, want abc-123", entries[0]["run_id"])
	}
}

func TestEnabled(t *testing.T) {
	if l := Nop(); l.GetLevel() != LogLevelSilent || l.Enabled(LogLevelError) {
		t.Errorf("Nop level = %v, want silent", l.GetLevel())
	}
	l, err := New(Options{Level: LogLevelVerbose, Console: &bytes.Buffer{}})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if !l.Enabled(LogLevelInfo) || !l.Enabled(LogLevelVerbose) || l.Enabled(LogLevelDebug) {
		t.Error("Enabled should follow the configured level")
	}
}

func TestLogStartup(t *testing.T) {
	tests := []struct {
		name  string
		waits []time.Duration
		want  string
	}{
		{"with retries", []time.Duration{time.Second, 2 * time.Second}, "Retries: 2 (waits 1s, 2s)"},
		{"no retries", nil, "Retries: none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var console bytes.Buffer
			l, err := New(Options{Level: LogLevelVerbose, Console: &console, NoColor: true})
			if err != nil {
				t.Fatal(err)
			}
			defer l.Close()

			l.LogStartup("trace.pcap", 10, 1, "gpt-4o-mini", "https://api.example.com/v1", tt.waits)
			out := console.String()
			for _, want := range []string{"Capture: trace.pcap", "Model: gpt-4o-mini", tt.want} {
				if !strings.Contains(out, want) {
					t.Errorf("startup log missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestNoColorConsole(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{Level: LogLevelInfo, Console: &console, NoColor: true})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("hello")
	if strings.Contains(console.String(), "\x1b[") {
		t.Errorf("NoColor output contains escape codes: %q", console.String())
	}
}

func TestLevelFromFlags(t *testing.T) {
	tests := []struct {
		verbose, debug, quiet bool
		want                  LogLevel
	}{
		{false, false, false, LogLevelInfo},
		{true, false, false, LogLevelVerbose},
		{true, true, false, LogLevelDebug},
		{true, true, true, LogLevelError},
	}
	for _, tt := range tests {
		if got := LevelFromFlags(tt.verbose, tt.debug, tt.quiet); got != tt.want {
			t.Errorf("LevelFromFlags(%v, %v, %v) = %v, want %v", tt.verbose, tt.debug, tt.quiet, got, tt.want)
		}
	}
}
