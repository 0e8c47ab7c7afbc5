package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/auth"
)

// SuccessResponse is returned by mutations without a richer body.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// actor returns the authenticated user id as an activity pointer.
func actor(c echo.Context) *int64 {
	id, err := auth.UserIDFromContext(c)
	if err != nil {
		return nil
	}
	return &id
}
