package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"repopa/internal/core/apperror"
	"repopa/internal/infrastructure/http/v1/dto"
	"repopa/pkg/logger"
)

const jsonContentType = "application/json; charset=utf-8"

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		// If response already written by handler, do not override it.
		if c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

// writeError is the single writer of error bodies.
func writeError(c *gin.Context, err error) {
	status, body := errorResponse(c, err)

	raw, mErr := json.Marshal(body)
	if mErr != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"Internal server error","code":"` + apperror.CodeInternal + `","message":"Internal server error"}`)
	}

	settleFailedIdempotency(c, status, raw)
	c.Data(status, jsonContentType, raw)
}

func errorResponse(c *gin.Context, err error) (int, dto.ErrorResponse) {
	ctx := c.Request.Context()

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil || appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error(ctx, "request error",
				"code", appErr.Code,
				"details", appErr.Details,
				"cause", appErr.Err,
			)
		}
		details := appErr.Details
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			// keep operation names, add the id clients quote in reports
			details = map[string]any{"request_id": c.GetString("request_id")}
			if op, ok := appErr.Details["operation"]; ok {
				details["operation"] = op
			}
		}
		return appErr.HTTPStatus, dto.ErrorResponse{
			Error:   appErr.Message,
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		}
	}

	logger.Error(ctx, "unhandled error", "error", err)
	return http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "Internal server error",
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"request_id": c.GetString("request_id")},
	}
}
