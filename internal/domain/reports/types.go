package reports

import (
	"time"

	"repopa/internal/domain/entes"
	"repopa/internal/domain/records/director"
	"repopa/internal/domain/records/governingbody"
	"repopa/internal/domain/records/power"
	"repopa/internal/domain/records/regdoc"
)

// EntityHistory is one entity with its registry records.
type EntityHistory struct {
	Ente      *entes.Ente             `json:"entity"`
	Documents []*regdoc.Document      `json:"documents"`
	Members   []*governingbody.Member `json:"members"`
	Directors []*director.Director    `json:"directors"`
	Powers    []*power.Power          `json:"powers"`
}

// History is the payload of the history report.
type History struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	Entities    []EntityHistory `json:"entities"`
}

// FileName is the download name for the report in the given extension.
func (h *History) FileName(ext string) string {
	return "REPOPA-Historial-" + h.GeneratedAt.Format("2006-01-02") + "." + ext
}
