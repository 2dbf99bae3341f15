package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/webclinic017/sagetrader-api/internal/logger"
)

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(logger.RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	id := w.Header().Get(RequestIDHeader)
	if id == "" || w.Body.String() != id {
		t.Fatalf("header=%q body=%q", id, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("header=%q want=abc-123", got)
	}
}

func TestWriteAuditLogsOnlyWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(WriteAudit(zap.New(core), "/api/v1"))
	r.GET("/api/v1/trade", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/api/v1/trade", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.DELETE("/api/v1/trade/1", func(c *gin.Context) { c.Status(http.StatusConflict) })
	r.POST("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/trade"},
		{http.MethodPost, "/api/v1/trade"},
		{http.MethodDelete, "/api/v1/trade/1"},
		{http.MethodPost, "/healthz"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, nil))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d want=2", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[1].Level != zap.WarnLevel {
		t.Fatalf("levels=%v,%v", entries[0].Level, entries[1].Level)
	}
}
