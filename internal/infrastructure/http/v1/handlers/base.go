// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/apperror"
	"repopa/internal/core/id"
	"repopa/internal/domain"
	"repopa/internal/domain/filter"
	"repopa/internal/infrastructure/http/v1/dto"
	"repopa/internal/infrastructure/http/v1/middleware"
)

const (
	jsonContentType = "application/json; charset=utf-8"

	defaultPageSize = 50
	maxPageSize     = 200
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseID reads the :id path parameter.
func (h *BaseHandler) ParseID(c *gin.Context) (id.ID, bool) {
	v, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format").WithDetail("id", c.Param("id")))
		return id.Nil(), false
	}
	return v, true
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseIDList reads a list of ids given as repeated or comma separated
// values of key.
func (h *BaseHandler) ParseIDList(c *gin.Context, key string) ([]id.ID, bool) {
	var raw []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				raw = append(raw, part)
			}
		}
	}
	ids, err := id.ParseList(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id in "+key).WithDetail("error", err.Error()))
		return nil, false
	}
	return ids, true
}

// ListFilter reads the common list parameters: search, limit, offset,
// orderBy, entityId, status, type and the JSON "filter" array.
func (h *BaseHandler) ListFilter(c *gin.Context, defaultOrder string) (domain.ListFilter, bool) {
	f := domain.DefaultListFilter()
	f.Search = strings.TrimSpace(c.Query("search"))
	f.Limit = h.ParseIntQuery(c, "limit", defaultPageSize)
	if f.Limit <= 0 || f.Limit > maxPageSize {
		f.Limit = defaultPageSize
	}
	f.Offset = max(h.ParseIntQuery(c, "offset", 0), 0)
	f.OrderBy = c.DefaultQuery("orderBy", defaultOrder)

	if raw := c.Query("entityId"); raw != "" {
		entityID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid entityId").WithDetail("field", "entityId"))
			return f, false
		}
		f.EntityID = &entityID
	}

	items, err := filter.Parse(c.Query("filter"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid filter format (json expected)").WithDetail("error", err.Error()))
		return f, false
	}
	for _, col := range []string{"status", "type"} {
		if v := c.Query(col); v != "" {
			items = append(items, filter.Item{Field: col, Operator: filter.Equal, Value: v})
		}
	}
	f.AdvancedFilters = items

	return f, true
}

// respond writes v as JSON and records it for idempotent replay.
func (h *BaseHandler) respond(c *gin.Context, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		h.Error(c, apperror.NewInternal(err))
		return
	}
	middleware.CompleteIdempotency(c, status, jsonContentType, body)
	c.Data(status, jsonContentType, body)
}

// Created sends 201 with v.
func (h *BaseHandler) Created(c *gin.Context, v any) {
	h.respond(c, http.StatusCreated, v)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	h.respond(c, http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	middleware.CompleteIdempotency(c, http.StatusNoContent, "", nil)
	c.Status(http.StatusNoContent)
}

// listResponse wraps one page of results.
func listResponse[T any](res domain.ListResult[T]) dto.ListResponse {
	items := res.Items
	if items == nil {
		items = []T{}
	}
	return dto.ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}
