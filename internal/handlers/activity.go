package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/activity"
)

const maxActivityLimit = 200

type ActivityHandler struct {
	service *activity.Service
	logger  *slog.Logger
}

// ActivityResponse is the body of GET /api/activity.
type ActivityResponse struct {
	Activity []activity.Entry `json:"activity"`
}

func NewActivityHandler(log *slog.Logger, service *activity.Service) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  log.With(slog.String("handler", "activity")),
	}
}

func (h *ActivityHandler) Register(e *echo.Echo) {
	e.GET("/api/activity", h.List)
}

// List godoc
// @Summary Recent activity
// @Tags activity
// @Param limit query int false "Maximum entries (default 50, max 200)"
// @Success 200 {object} ActivityResponse
// @Router /api/activity [get]
func (h *ActivityHandler) List(c echo.Context) error {
	limit := activity.DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = min(n, maxActivityLimit)
	}
	entries, err := h.service.List(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, ActivityResponse{Activity: entries})
}
