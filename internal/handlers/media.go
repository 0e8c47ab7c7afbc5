package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/auth"
	"github.com/memohai/folio/internal/imageproc"
	"github.com/memohai/folio/internal/media"
	"github.com/memohai/folio/internal/ratelimit"
)

const mediaCacheControl = "public, max-age=31536000, immutable"

// multipartOverhead is the slack allowed above MaxUploadBytes for the
// multipart envelope.
const multipartOverhead = 64 << 10

// MediaOptions bound what the upload route accepts.
type MediaOptions struct {
	MaxUploadBytes int64
	AllowedTypes   []string
}

type MediaHandler struct {
	service         *media.Service
	activityService *activity.Service
	limiter         *ratelimit.Limiter
	opts            MediaOptions
	logger          *slog.Logger
}

func NewMediaHandler(log *slog.Logger, service *media.Service, activityService *activity.Service, limiter *ratelimit.Limiter, opts MediaOptions) *MediaHandler {
	return &MediaHandler{
		service:         service,
		activityService: activityService,
		limiter:         limiter,
		opts:            opts,
		logger:          log.With(slog.String("handler", "media")),
	}
}

func (h *MediaHandler) Register(e *echo.Echo) {
	group := e.Group("/api/media")
	group.GET("", h.List)
	limit := middleware.BodyLimit(strconv.FormatInt((h.opts.MaxUploadBytes+multipartOverhead)>>10, 10) + "K")
	group.POST("", h.Upload, limit)
	group.GET("/serve/:id", h.Serve)
	group.DELETE("/:id", h.Delete)
}

// List godoc
// @Summary List media
// @Tags media
// @Success 200 {object} media.ListResponse
// @Router /api/media [get]
func (h *MediaHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		h.logger.Error("list media", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, media.ListResponse{Media: items})
}

// Upload godoc
// @Summary Upload image
// @Description Multipart upload in field "file"; runs the image pipeline
// @Tags media
// @Accept multipart/form-data
// @Param file formData file true "Image"
// @Success 201 {object} media.UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/media [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	if !h.limiter.Allow(fmt.Sprintf("upload:%d", userID)) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Upload limit exceeded")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	if h.opts.MaxUploadBytes > 0 && fh.Size > h.opts.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusBadRequest, "File too large")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	defer func() { _ = f.Close() }()
	var r io.Reader = f
	if h.opts.MaxUploadBytes > 0 {
		r = io.LimitReader(f, h.opts.MaxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	if len(data) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	if h.opts.MaxUploadBytes > 0 && int64(len(data)) > h.opts.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusBadRequest, "File too large")
	}

	_, mime, err := imageproc.Sniff(data)
	if err != nil || (len(h.opts.AllowedTypes) > 0 && !slices.Contains(h.opts.AllowedTypes, mime)) {
		h.logger.Info("rejected upload", slog.String("detected", mime), slog.String("filename", fh.Filename))
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type")
	}

	ctx := c.Request().Context()
	m, err := h.service.Upload(ctx, media.UploadInput{UserID: userID, Filename: fh.Filename, Data: data})
	if err != nil {
		switch imageproc.KindOf(err) {
		case imageproc.KindUnsupportedType:
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid file type")
		case imageproc.KindDimensionTooLarge, imageproc.KindResolutionTooHigh:
			return echo.NewHTTPError(http.StatusBadRequest, "Image dimensions too large")
		}
		h.logger.Error("process upload",
			slog.String("kind", string(imageproc.KindOf(err))),
			slog.String("filename", fh.Filename),
			slog.Any("error", err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to process image")
	}

	h.activityService.Record(ctx, activity.Entry{
		UserID:     &userID,
		Action:     activity.ActionUpload,
		EntityType: "media",
		EntityID:   activity.ID(m.ID),
		Details:    m.OriginalName,
	})
	return c.JSON(http.StatusCreated, media.UploadResponse{Success: true, ID: m.ID, URL: m.URL, Media: m})
}

// Serve godoc
// @Summary Serve media
// @Description Original by default; ?format=webp for WebP; ?w=N for a responsive variant
// @Tags media
// @Param id path int true "Media ID"
// @Param format query string false "webp"
// @Param w query int false "Variant width"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Router /api/media/serve/{id} [get]
func (h *MediaHandler) Serve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	width := 0
	if raw := c.QueryParam("w"); raw != "" {
		if width, err = strconv.Atoi(raw); err != nil || width <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid width")
		}
	}
	path, contentType, err := h.service.Resolve(c.Request().Context(), id, c.QueryParam("format"), width)
	if err != nil {
		if errors.Is(err, media.ErrMediaNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Media not found")
		}
		h.logger.Error("resolve media", slog.Int64("id", id), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	header := c.Response().Header()
	header.Set(echo.HeaderContentType, contentType)
	header.Set("Cache-Control", mediaCacheControl)
	return c.File(path)
}

// Delete godoc
// @Summary Delete media
// @Tags media
// @Param id path int true "Media ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/media/{id} [delete]
func (h *MediaHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.service.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, media.ErrMediaNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Media not found")
		case errors.Is(err, media.ErrMediaInUse):
			return echo.NewHTTPError(http.StatusBadRequest, "Media is in use")
		}
		h.logger.Error("delete media", slog.Int64("id", id), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	h.activityService.Record(ctx, activity.Entry{
		UserID:     actor(c),
		Action:     activity.ActionDelete,
		EntityType: "media",
		EntityID:   activity.ID(id),
	})
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
