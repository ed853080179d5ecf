package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Success bool     `json:"success"`
	Status  string   `json:"status"`
	Message string   `json:"message,omitempty"`
	Code    []string `json:"code,omitempty"`
}

// ErrorHandler renders the last error attached to the request as the JSON
// error envelope. Handlers report failures with AbortWithError.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		status := GetErrorStatus(last.Err)
		info := GetErrorInfo(last.Err)

		attrs := []any{
			"error", last.Err,
			"status", status,
			"method", c.Request.Method,
			"path", c.FullPath(),
		}
		if playerID := c.GetString(ctxPlayerID); playerID != "" {
			attrs = append(attrs, "player_id", playerID)
		}
		if status >= 500 {
			slog.Error("Request failed", attrs...)
		} else {
			slog.Warn("Request rejected", attrs...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, errorResponse{
			Success: false,
			Status:  "error",
			Message: info.Message,
			Code:    info.StopCodes,
		})
	}
}

// AbortWithError stops the handler chain and leaves err for ErrorHandler.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
	// Status only; the body is written by ErrorHandler.
	c.Status(GetErrorStatus(err))
}
