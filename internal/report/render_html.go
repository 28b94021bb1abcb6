package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderHTML renders the summary (model output is markdown) and the batch
// details as a standalone HTML page.
func RenderHTML(r *Result) []byte {
	var md strings.Builder
	md.WriteString(RenderSummary(r))
	md.WriteString("\n\n---\n\n## Batch details\n\n")
	for _, d := range r.Details {
		title := fmt.Sprintf("Batch %s (packets %d-%d)", d.Label(), d.FirstPacket, d.LastPacket)
		if d.Failed {
			title += " - failed"
		}
		md.WriteString("### " + title + "\n\n")
		md.WriteString(strings.TrimRight(d.Text, "\n") + "\n\n")
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CompletePage | mdhtml.HrefTargetBlank,
		Title: "pcapexplain: " + r.CaptureFile,
	})
	return markdown.ToHTML([]byte(md.String()), p, renderer)
}
