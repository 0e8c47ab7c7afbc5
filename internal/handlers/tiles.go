package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/tiles"
)

type TilesHandler struct {
	service         *tiles.Service
	activityService *activity.Service
	logger          *slog.Logger
}

func NewTilesHandler(log *slog.Logger, service *tiles.Service, activityService *activity.Service) *TilesHandler {
	return &TilesHandler{
		service:         service,
		activityService: activityService,
		logger:          log.With(slog.String("handler", "tiles")),
	}
}

func (h *TilesHandler) Register(e *echo.Echo) {
	group := e.Group("/api/tiles")
	group.GET("", h.List)
	group.POST("", h.Create)
	group.PATCH("/reorder", h.Reorder)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// List godoc
// @Summary List tiles
// @Tags tiles
// @Success 200 {object} tiles.ListResponse
// @Router /api/tiles [get]
func (h *TilesHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, tiles.ListResponse{Tiles: items})
}

// Get godoc
// @Summary Get tile
// @Tags tiles
// @Param id path int true "Tile ID"
// @Success 200 {object} tiles.Tile
// @Failure 404 {object} ErrorResponse
// @Router /api/tiles/{id} [get]
func (h *TilesHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusOK, t)
}

// Create godoc
// @Summary Create tile
// @Tags tiles
// @Param payload body tiles.CreateRequest true "Tile"
// @Success 201 {object} tiles.Tile
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/tiles [post]
func (h *TilesHandler) Create(c echo.Context) error {
	var req tiles.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(err)
	}
	h.record(c, activity.ActionCreate, t.ID, t.Slug)
	return c.JSON(http.StatusCreated, t)
}

// Update godoc
// @Summary Update tile
// @Description Partial update; omitted fields are kept
// @Tags tiles
// @Param id path int true "Tile ID"
// @Param payload body tiles.UpdateRequest true "Fields to change"
// @Success 200 {object} tiles.Tile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tiles/{id} [put]
func (h *TilesHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req tiles.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	t, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return h.fail(err)
	}
	h.record(c, activity.ActionUpdate, t.ID, t.Slug)
	return c.JSON(http.StatusOK, t)
}

// Delete godoc
// @Summary Delete tile
// @Tags tiles
// @Param id path int true "Tile ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/tiles/{id} [delete]
func (h *TilesHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return h.fail(err)
	}
	h.record(c, activity.ActionDelete, id, "")
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Reorder godoc
// @Summary Reorder tiles
// @Description Sets order_index to each id's position in the list
// @Tags tiles
// @Param payload body tiles.ReorderRequest true "Ordered ids"
// @Success 200 {object} SuccessResponse
// @Router /api/tiles/reorder [patch]
func (h *TilesHandler) Reorder(c echo.Context) error {
	var req tiles.ReorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ids required")
	}
	n, err := h.service.Reorder(c.Request().Context(), req.ParseIDs())
	if err != nil {
		return h.fail(err)
	}
	h.activityService.Record(c.Request().Context(), activity.Entry{
		UserID:     actor(c),
		Action:     activity.ActionReorder,
		EntityType: "tile",
		Details:    fmt.Sprintf("%d tiles", n),
	})
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *TilesHandler) record(c echo.Context, action string, id int64, details string) {
	h.activityService.Record(c.Request().Context(), activity.Entry{
		UserID:     actor(c),
		Action:     action,
		EntityType: "tile",
		EntityID:   activity.ID(id),
		Details:    details,
	})
}

func (h *TilesHandler) fail(err error) error {
	switch {
	case errors.Is(err, tiles.ErrTileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Tile not found")
	case errors.Is(err, tiles.ErrSlugTaken):
		return echo.NewHTTPError(http.StatusConflict, "Slug already exists")
	case errors.Is(err, tiles.ErrNoFields):
		return echo.NewHTTPError(http.StatusBadRequest, "No fields to update")
	case errors.Is(err, tiles.ErrUnknownMedia):
		return echo.NewHTTPError(http.StatusBadRequest, "Background media not found")
	case errors.Is(err, tiles.ErrInvalidTile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.logger.Error("tiles request failed", slog.Any("error", err))
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}
