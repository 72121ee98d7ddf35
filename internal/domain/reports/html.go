package reports

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// HTMLContentType is sent with the printable report.
const HTMLContentType = "text/html; charset=utf-8"

//go:embed templates/history.html.tmpl
var templateFS embed.FS

var historyTemplate = template.Must(
	template.New("history.html.tmpl").
		Funcs(template.FuncMap{
			"dateOr":    dateOr,
			"longDate":  longDate,
			"orDefault": orDefault,
			"join":      strings.Join,
		}).
		ParseFS(templateFS, "templates/history.html.tmpl"),
)

// WriteHTML renders h as a printable page. The browser's print dialog
// turns it into the PDF.
func WriteHTML(w io.Writer, h *History) error {
	if err := historyTemplate.Execute(w, h); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}
