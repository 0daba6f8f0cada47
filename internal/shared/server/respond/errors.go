package respond

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/shared/apperr"
	"resume-tailor/internal/shared/telemetry"
)

// statusClientClosedRequest is recorded when the caller went away mid-request.
const statusClientClosedRequest = 499

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// AppError answers with the status and remediation message of err's kind. The
// upstream status of a transport failure is passed along in details.
func AppError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) {
		c.Set("errorKind", "canceled")
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	kind := apperr.KindOf(err)
	c.Set("errorKind", string(kind))
	var details interface{}
	if status := apperr.StatusOf(err); status != 0 {
		details = gin.H{"upstreamStatus": status}
	}
	if kind == apperr.Internal {
		telemetry.Error("http.internal_error", map[string]any{
			"request_id": c.GetString("requestId"),
			"error":      apperr.Snippet(err.Error()),
		})
	}
	Error(c, apperr.HTTPStatus(kind), string(kind), apperr.Message(kind), details)
}
