package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/webclinic017/sagetrader-api/internal/assets"
	"github.com/webclinic017/sagetrader-api/internal/auth"
	"github.com/webclinic017/sagetrader-api/internal/repository"
	"github.com/webclinic017/sagetrader-api/internal/service"
)

// statusOf maps domain error kinds to HTTP status codes.
func statusOf(err error) int {
	var (
		notFound *repository.NotFoundError
		dup      *repository.DuplicateError
		inUse    *repository.InUseError
		cfg      *repository.ConfigurationError
		page     *repository.InvalidPageError
		invalid  *repository.ValidationError
		ext      *assets.ExternalServiceError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &dup), errors.As(err, &inUse):
		return http.StatusConflict
	case errors.As(err, &cfg), errors.As(err, &page), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &ext):
		return http.StatusFailedDependency
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInactiveUser):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		if log != nil {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		Error(c, status, "internal error", nil)
		return
	}
	Error(c, status, err.Error(), nil)
}
