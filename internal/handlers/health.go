package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/storage"
	"github.com/memohai/folio/internal/version"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	conn      *sql.DB
	uploadDir string
	logger    *slog.Logger
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status   string      `json:"status"`
	Database string      `json:"database"`
	Disk     *DiskStatus `json:"disk,omitempty"`
	Version  string      `json:"version"`
}

// DiskStatus reports capacity of the uploads filesystem.
type DiskStatus struct {
	Free   uint64  `json:"free"`
	Total  uint64  `json:"total"`
	FreeGB float64 `json:"free_gb"`
}

func NewHealthHandler(log *slog.Logger, conn *sql.DB, uploadDir string) *HealthHandler {
	return &HealthHandler{
		conn:      conn,
		uploadDir: uploadDir,
		logger:    log.With(slog.String("handler", "health")),
	}
}

// Register mounts GET /ping, HEAD /health and GET /api/health.
func (h *HealthHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
	e.GET("/api/health", h.Health)
}

// Ping returns 200 JSON {"status":"ok"}.
func (h *HealthHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// PingHead returns 200 No Content for health checks.
func (h *HealthHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Health godoc
// @Summary Readiness probe
// @Description Database connectivity and free space of the uploads filesystem
// @Tags system
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Database: "ok", Version: version.GetInfo()}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.conn.PingContext(ctx); err != nil {
		h.logger.Warn("database ping failed", slog.Any("error", err))
		resp.Status = "degraded"
		resp.Database = "error"
	}

	if usage, err := storage.DiskUsage(h.uploadDir); err == nil {
		resp.Disk = &DiskStatus{Free: usage.Free, Total: usage.Total, FreeGB: usage.FreeGB()}
	} else {
		h.logger.Debug("disk usage unavailable", slog.Any("error", err))
	}
	status := http.StatusOK
	if resp.Database != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, resp)
}
