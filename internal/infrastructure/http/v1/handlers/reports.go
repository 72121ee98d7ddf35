package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain/reports"
)

// ReportService builds the history report.
type ReportService interface {
	History(ctx context.Context, ids []id.ID) (*reports.History, error)
}

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service ReportService
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service ReportService) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// HistoryCSV handles GET /reports/history.csv?ids=
// The file is sent as an attachment.
func (h *ReportsHandler) HistoryCSV(c *gin.Context) {
	h.render(c, "csv", "attachment", reports.CSVContentType, reports.WriteCSV)
}

// HistoryHTML handles GET /reports/history.html?ids=
// The page is shown inline for printing.
func (h *ReportsHandler) HistoryHTML(c *gin.Context) {
	h.render(c, "html", "inline", reports.HTMLContentType, reports.WriteHTML)
}

func (h *ReportsHandler) render(
	c *gin.Context,
	ext, disposition, contentType string,
	write func(io.Writer, *reports.History) error,
) {
	ids, ok := h.ParseIDList(c, "ids")
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), ids)
	if err != nil {
		h.Error(c, err)
		return
	}

	// render fully before writing headers so a failure still gets a JSON error
	var buf bytes.Buffer
	if err := write(&buf, history); err != nil {
		h.Error(c, apperror.NewInternal(err).WithDetail("format", ext))
		return
	}

	c.Header("Content-Disposition", disposition+`; filename="`+history.FileName(ext)+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
