package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tturner/pcapexplain/internal/errors"
)

// Output file names, relative to the sink directory.
const (
	SummaryFile = "summary.txt"
	DetailsFile = "details.txt"
	HTMLFile    = "summary.html"
	JSONFile    = "analysis.json"
)

// Sink persists a finished Result. Files are overwritten on every run.
type Sink struct {
	Dir     string // empty means the working directory
	HTML    bool
	JSON    bool
	Version string // recorded in analysis.json
}

// Artifacts lists the files a Sink wrote.
type Artifacts struct {
	Summary string
	Details string
	HTML    string
	JSON    string
}

// Paths returns the written paths in write order.
func (a Artifacts) Paths() []string {
	var out []string
	for _, p := range []string{a.Summary, a.Details, a.HTML, a.JSON} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Write stores r. Every artifact is attempted; failures are returned as
// *errors.PersistenceError (joined if more than one) and r is not modified.
func (s Sink) Write(r *Result) (Artifacts, error) {
	var written Artifacts
	if r == nil || r.Summary == nil {
		return written, fmt.Errorf("no summary to write")
	}

	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return written, &errors.PersistenceError{Path: dir, Err: err}
	}

	var errs []error
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			errs = append(errs, &errors.PersistenceError{Path: path, Err: err})
			return ""
		}
		return path
	}

	written.Summary = write(SummaryFile, []byte(RenderSummary(r)))
	written.Details = write(DetailsFile, []byte(RenderDetails(r.Details)))
	if s.HTML {
		written.HTML = write(HTMLFile, RenderHTML(r))
	}
	if s.JSON {
		path := filepath.Join(dir, JSONFile)
		if err := WriteJSONFile(path, NewDocument(r, s.Version)); err != nil {
			errs = append(errs, &errors.PersistenceError{Path: path, Err: err})
		} else {
			written.JSON = path
		}
	}

	switch len(errs) {
	case 0:
		return written, nil
	case 1:
		return written, errs[0]
	}
	return written, errors.Join(errs...)
}
