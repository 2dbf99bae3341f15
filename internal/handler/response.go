package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webclinic017/sagetrader-api/internal/logger"
)

// apiResponse is the envelope every JSON endpoint answers with. Code is 0 on
// success and the HTTP status otherwise.
type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{Message: "ok", Data: data, Meta: meta})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, apiResponse{Message: "created", Data: data})
}

// Error writes a failure envelope. The request id, when present, is added to
// meta so a client report can be matched to the audit log line.
func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    withRequestID(c, meta),
	})
}

func withRequestID(c *gin.Context, meta map[string]any) map[string]any {
	id := c.GetString(logger.RequestIDKey)
	if id == "" {
		return meta
	}
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	out[logger.RequestIDKey] = id
	return out
}
