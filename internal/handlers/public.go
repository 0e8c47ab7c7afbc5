package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/tiles"
)

// PublicHandler serves the unauthenticated gallery feed.
type PublicHandler struct {
	service *tiles.Service
	logger  *slog.Logger
	now     func() time.Time
}

func NewPublicHandler(log *slog.Logger, service *tiles.Service) *PublicHandler {
	return &PublicHandler{
		service: service,
		logger:  log.With(slog.String("handler", "public")),
		now:     time.Now,
	}
}

func (h *PublicHandler) Register(e *echo.Echo) {
	e.GET("/api/public/tiles", h.Tiles)
}

// Tiles godoc
// @Summary Public gallery
// @Description Visible tiles whose publish time has passed, in display order
// @Tags public
// @Success 200 {object} tiles.PublicResponse
// @Router /api/public/tiles [get]
func (h *PublicHandler) Tiles(c echo.Context) error {
	items, err := h.service.ListPublic(c.Request().Context(), h.now())
	if err != nil {
		h.logger.Error("list public tiles", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	c.Response().Header().Set("Cache-Control", "public, max-age=60")
	return c.JSON(http.StatusOK, tiles.PublicResponse{Tiles: items})
}
