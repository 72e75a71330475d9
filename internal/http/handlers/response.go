// Package handlers provides HTTP handler implementations for the public API.
//
// This file carries the response envelope shared by the deletion, archive,
// and audit endpoints. Every failure goes through fail(), which picks up
// the correlation ID and a stable machine-readable code, so a client can
// branch on "has_dependencies" versus "rate_limited" without parsing
// message text. A typical failure body:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "resource not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmarkou/go-lab-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint. Code is
// one of the constants in errors.go; Message is safe to show to users.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// fail aborts the request with an ErrorResponse. Server-side failures
// (status >= 500) also land in the request-scoped log; client errors are
// already visible in the access log line.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail to the router for NoRoute/NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent answers 204 for operations with nothing to report, such as a
// completed purge.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
