package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/id"
	"repopa/internal/domain"
	"repopa/internal/domain/audit"
	"repopa/internal/domain/entes"
	"repopa/internal/infrastructure/http/v1/dto"
)

// EnteService is what EntesHandler needs from entes.Service.
type EnteService interface {
	Register(ctx context.Context, req entes.RegisterRequest) (*entes.Registration, error)
	PreviewFolio(ctx context.Context, name, rawType string) (string, error)
	Get(ctx context.Context, enteID id.ID) (*entes.Ente, error)
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*entes.Ente], error)
	Update(ctx context.Context, ente *entes.Ente) error
	Delete(ctx context.Context, enteID id.ID) error
	History(ctx context.Context, enteID id.ID, limit int) ([]audit.Entry, error)
	Stats(ctx context.Context) (entes.Stats, error)
}

var _ EnteService = (*entes.Service)(nil)

// EntesHandler serves registration and maintenance of entities.
type EntesHandler struct {
	*BaseHandler
	service EnteService
}

// NewEntesHandler creates a new entities handler.
func NewEntesHandler(base *BaseHandler, service EnteService) *EntesHandler {
	return &EntesHandler{BaseHandler: base, service: service}
}

// Register handles POST /entes.
// Responds 201 {id, folio}.
func (h *EntesHandler) Register(c *gin.Context) {
	var req dto.RegisterEnteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	reg, err := h.service.Register(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromRegistration(reg))
}

// PreviewFolio handles GET /entes/folio-preview?name=&type=
func (h *EntesHandler) PreviewFolio(c *gin.Context) {
	folio, err := h.service.PreviewFolio(c.Request.Context(), c.Query("name"), c.Query("type"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FolioPreviewResponse{Folio: folio})
}

// List handles GET /entes?search=&type=&status=
func (h *EntesHandler) List(c *gin.Context) {
	f, ok := h.ListFilter(c, "name")
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, listResponse(result))
}

// Get handles GET /entes/:id
func (h *EntesHandler) Get(c *gin.Context) {
	enteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	ente, err := h.service.Get(c.Request.Context(), enteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ente)
}

// Update handles PUT /entes/:id
func (h *EntesHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	enteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateEnteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ente, err := h.service.Get(ctx, enteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.Apply(ente); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, ente); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ente)
}

// Delete handles DELETE /entes/:id
func (h *EntesHandler) Delete(c *gin.Context) {
	enteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), enteID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /entes/:id/history?limit=
func (h *EntesHandler) History(c *gin.Context) {
	enteID, ok := h.ParseID(c)
	if !ok {
		return
	}

	entries, err := h.service.History(c.Request.Context(), enteID, h.ParseIntQuery(c, "limit", defaultPageSize))
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	h.OK(c, dto.ItemsResponse{Items: entries})
}

// Stats handles GET /dashboard/stats
func (h *EntesHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if stats.RecentEntities == nil {
		stats.RecentEntities = []entes.RecentEntity{}
	}
	h.OK(c, stats)
}
