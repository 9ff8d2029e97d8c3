package report

import (
	_ "embed"
	"html/template"
	"io"
)

//go:embed report.html.tmpl
var reportTemplateSrc string

// reportTemplate renders the standalone HTML artifact. html/template
// escapes every field, so report strings stay untrusted text.
var reportTemplate = template.Must(template.New("report").Parse(reportTemplateSrc))

// RenderHTML writes the human-readable HTML rendering of the report.
func RenderHTML(w io.Writer, r *Report) error {
	return reportTemplate.Execute(w, r)
}
