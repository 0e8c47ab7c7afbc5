package handlers

// @title Folio API
// @version 1.0.0
// @description Admin and public endpoints of the folio portfolio server.

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/labstack/echo/v4"
)

//go:generate go run github.com/swaggo/swag/cmd/swag@latest init -g swagger.go -o ../../docs --parseDependency --parseInternal

// DefaultSwaggerPath is where `go generate` writes the API document.
const DefaultSwaggerPath = "docs/swagger.json"

type SwaggerHandler struct {
	path   string
	once   sync.Once
	spec   []byte
	err    error
	logger *slog.Logger
}

func NewSwaggerHandler(log *slog.Logger) *SwaggerHandler {
	return &SwaggerHandler{
		path:   DefaultSwaggerPath,
		logger: log.With(slog.String("handler", "swagger")),
	}
}

func (h *SwaggerHandler) Register(e *echo.Echo) {
	e.GET("/api/swagger.json", h.Spec)
	e.GET("/api/docs", h.UI)
	e.GET("/api/docs/", h.UI)
}

// Spec serves the generated document, read once.
func (h *SwaggerHandler) Spec(c echo.Context) error {
	h.once.Do(func() {
		h.spec, h.err = os.ReadFile(h.path)
	})
	if h.err != nil {
		if errors.Is(h.err, fs.ErrNotExist) {
			return echo.NewHTTPError(http.StatusNotFound, "API document not generated")
		}
		h.logger.Error("read swagger document", slog.Any("error", h.err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, h.spec)
}

func (h *SwaggerHandler) UI(c echo.Context) error {
	return c.HTML(http.StatusOK, swaggerUIHTML)
}

const swaggerUIHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>folio API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.onload = () => {
        window.ui = SwaggerUIBundle({ url: '/api/swagger.json', dom_id: '#swagger-ui' });
      };
    </script>
  </body>
</html>`
