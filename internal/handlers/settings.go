package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/settings"
)

type SettingsHandler struct {
	service         *settings.Service
	activityService *activity.Service
	logger          *slog.Logger
}

func NewSettingsHandler(log *slog.Logger, service *settings.Service, activityService *activity.Service) *SettingsHandler {
	return &SettingsHandler{
		service:         service,
		activityService: activityService,
		logger:          log.With(slog.String("handler", "settings")),
	}
}

func (h *SettingsHandler) Register(e *echo.Echo) {
	group := e.Group("/api/settings")
	group.GET("", h.Get)
	group.PUT("", h.Update)
}

// Get godoc
// @Summary Get site settings
// @Tags settings
// @Success 200 {object} settings.Response
// @Router /api/settings [get]
func (h *SettingsHandler) Get(c echo.Context) error {
	all, err := h.service.All(c.Request().Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, settings.Response{Settings: all})
}

// Update godoc
// @Summary Update site settings
// @Description Upserts every key in the body; unknown keys are created
// @Tags settings
// @Param payload body settings.UpdateRequest true "Settings"
// @Success 200 {object} settings.Response
// @Failure 400 {object} ErrorResponse
// @Router /api/settings [put]
func (h *SettingsHandler) Update(c echo.Context) error {
	var req settings.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()
	all, err := h.service.Update(ctx, req.Settings)
	if err != nil {
		switch {
		case errors.Is(err, settings.ErrNoSettings):
			return echo.NewHTTPError(http.StatusBadRequest, "No settings provided")
		case errors.Is(err, settings.ErrInvalidKey), errors.Is(err, settings.ErrValueTooLong):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("update settings", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	h.activityService.Record(ctx, activity.Entry{
		UserID:     actor(c),
		Action:     activity.ActionUpdate,
		EntityType: "settings",
	})
	return c.JSON(http.StatusOK, settings.Response{Settings: all})
}
