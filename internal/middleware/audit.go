package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/logger"
)

// WriteAudit records every mutating API call with the acting user.
func WriteAudit(log *zap.Logger, apiPrefix string) gin.HandlerFunc {
	if log == nil {
		return func(c *gin.Context) { c.Next() }
	}
	log = log.Named("audit")

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		method := strings.ToUpper(c.Request.Method)
		if !strings.HasPrefix(path, apiPrefix) {
			return
		}
		// Only log write-ish methods.
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return
		}

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", method),
			zap.String("route", c.FullPath()),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.GetString(logger.RequestIDKey)),
		}
		if user := auth.CurrentUser(c); user != nil {
			fields = append(fields, zap.Uint64("user_uid", user.UID))
		}
		switch levelFromStatus(status) {
		case "error":
			log.Error("journal write", fields...)
		case "warn":
			log.Warn("journal write", fields...)
		default:
			log.Info("journal write", fields...)
		}
	}
}

func levelFromStatus(status int) string {
	if status >= 500 {
		return "error"
	}
	if status >= 400 {
		return "warn"
	}
	return "info"
}
