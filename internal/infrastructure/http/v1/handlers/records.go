package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/id"
	"repopa/internal/domain"
)

// RecordService is the CRUD surface shared by the record services.
type RecordService[T domain.Record] interface {
	Create(ctx context.Context, rec T) error
	GetByID(ctx context.Context, id id.ID) (T, error)
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, id id.ID) error
	List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error)
}

// RecordHandler provides generic HTTP handlers for the records attached
// to registered entities.
type RecordHandler[T domain.Record, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service      RecordService[T]
	defaultOrder string

	mapCreate func(dto CreateDTO) (T, error)
	mapUpdate func(dto UpdateDTO, existing T) (T, error)
}

// RecordHandlerConfig configures a RecordHandler.
type RecordHandlerConfig[T domain.Record, CreateDTO any, UpdateDTO any] struct {
	Service RecordService[T]

	// DefaultOrder is the list order when the client sends none.
	DefaultOrder string

	MapCreate func(dto CreateDTO) (T, error)
	MapUpdate func(dto UpdateDTO, existing T) (T, error)
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler[T domain.Record, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg RecordHandlerConfig[T, CreateDTO, UpdateDTO],
) *RecordHandler[T, CreateDTO, UpdateDTO] {
	return &RecordHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		defaultOrder: cfg.DefaultOrder,
		mapCreate:    cfg.MapCreate,
		mapUpdate:    cfg.MapUpdate,
	}
}

// List handles GET /{records}?entityId=&status=&search=
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	f, ok := h.ListFilter(c, h.defaultOrder)
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

// Get handles GET /{records}/:id
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	recID, ok := h.ParseID(c)
	if !ok {
		return
	}

	rec, err := h.service.GetByID(c.Request.Context(), recID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Create handles POST /{records}
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	rec, err := h.mapCreate(req)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), rec); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec)
}

// Update handles PUT /{records}/:id
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	recID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, recID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.mapUpdate(req, existing)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Delete handles DELETE /{records}/:id
func (h *RecordHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	recID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), recID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
