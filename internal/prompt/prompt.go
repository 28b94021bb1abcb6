// Package prompt renders the model prompts for batch analysis and the final
// summary from embedded text templates, with optional on-disk overrides.
package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/tturner/pcapexplain/internal/batch"
	"github.com/tturner/pcapexplain/internal/report"
)

//go:embed templates/*.tmpl
var embeddedFS embed.FS

// Template names, also the file names looked up in an override directory.
const (
	BatchTemplate   = "batch.tmpl"
	SummaryTemplate = "summary.tmpl"
)

// Builder renders prompts. Rendering is deterministic for a given input and
// does no I/O beyond loading templates once.
type Builder struct {
	captureName string
	overrideDir string

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewBuilder creates a builder for captureName. If overrideDir is set,
// batch.tmpl and summary.tmpl found there replace the embedded templates.
func NewBuilder(captureName, overrideDir string) *Builder {
	return &Builder{
		captureName: captureName,
		overrideDir: overrideDir,
		cache:       make(map[string]*template.Template),
	}
}

// BatchData is the template input for one batch prompt.
type BatchData struct {
	Capture     string
	Index       int
	Total       int
	FirstPacket int
	LastPacket  int
	Question    string
	Frames      string // tshark frame range when it differs from the positions
	TimeSpan    string
	Protocols   string // comma-separated, in order of first appearance
	Packets     string // indented JSON array of the batch's records
}

// SummaryData is the template input for the aggregation prompt.
type SummaryData struct {
	Capture  string
	Question string
	Results  []report.AnalysisResult
	Failed   int
}

// Batch renders the prompt for one batch. A blank question selects the
// default analysis instruction; otherwise the question is included verbatim.
func (b *Builder) Batch(bt batch.Batch, question string) (string, error) {
	packets, err := json.MarshalIndent(bt.Records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render batch %d packets: %w", bt.Index, err)
	}
	return b.execute(BatchTemplate, BatchData{
		Capture:     b.captureName,
		Index:       bt.Index,
		Total:       bt.Total,
		FirstPacket: bt.FirstPacket(),
		LastPacket:  bt.LastPacket(),
		Question:    normalizeQuestion(question),
		Frames:      frameRange(bt),
		TimeSpan:    timeSpan(bt),
		Protocols:   strings.Join(bt.Protocols(), ", "),
		Packets:     string(packets),
	})
}

func frameRange(bt batch.Batch) string {
	first, last := bt.Frames()
	if first == 0 || last == 0 || (first == bt.FirstPacket() && last == bt.LastPacket()) {
		return ""
	}
	return fmt.Sprintf("%d-%d", first, last)
}

func timeSpan(bt batch.Batch) string {
	start, end := bt.TimeSpan()
	if start.IsZero() || end.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s to %s (%s)", report.FormatTimestamp(start), report.FormatTimestamp(end), end.Sub(start))
}

// Summary renders the aggregation prompt over results in the order given,
// placeholders included.
func (b *Builder) Summary(results []report.AnalysisResult, question string) (string, error) {
	failed := 0
	for _, r := range results {
		if r.Failed {
			failed++
		}
	}
	return b.execute(SummaryTemplate, SummaryData{
		Capture:  b.captureName,
		Question: normalizeQuestion(question),
		Results:  results,
		Failed:   failed,
	})
}

// normalizeQuestion treats a whitespace-only question as absent.
func normalizeQuestion(q string) string {
	if strings.TrimSpace(q) == "" {
		return ""
	}
	return q
}

func (b *Builder) execute(name string, data any) (string, error) {
	tmpl, err := b.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func (b *Builder) load(name string) (*template.Template, error) {
	b.mu.RLock()
	if tmpl, ok := b.cache[name]; ok {
		b.mu.RUnlock()
		return tmpl, nil
	}
	b.mu.RUnlock()

	content, err := b.loadContent(name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("compile template %s: %w", name, err)
	}

	b.mu.Lock()
	b.cache[name] = tmpl
	b.mu.Unlock()
	return tmpl, nil
}

func (b *Builder) loadContent(name string) ([]byte, error) {
	if b.overrideDir != "" {
		if data, err := os.ReadFile(filepath.Join(b.overrideDir, name)); err == nil {
			return data, nil
		}
	}
	return fs.ReadFile(embeddedFS, "templates/"+name)
}
