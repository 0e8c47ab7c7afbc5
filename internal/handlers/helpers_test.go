package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/accounts"
	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/auth"
	"github.com/memohai/folio/internal/db/dbtest"
	"github.com/memohai/folio/internal/imageproc"
	"github.com/memohai/folio/internal/media"
	"github.com/memohai/folio/internal/ratelimit"
	"github.com/memohai/folio/internal/server"
	"github.com/memohai/folio/internal/settings"
	"github.com/memohai/folio/internal/tiles"
)

const (
	testEmail    = "admin@example.com"
	testPassword = "s3cret-pass"
	cookieName   = "folio_session"
)

type testEnv struct {
	t        *testing.T
	srv      *server.Server
	sessions *auth.Manager
	activity *activity.Service
	tiles    *tiles.Service
	dir      string
}

type envOptions struct {
	loginAttempts int
	uploads       int
	maxUpload     int64
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	if opts.loginAttempts == 0 {
		opts.loginAttempts = 5
	}
	if opts.uploads == 0 {
		opts.uploads = 20
	}
	if opts.maxUpload == 0 {
		opts.maxUpload = 10 << 20
	}

	conn, q := dbtest.Open(t)
	log := dbtest.Logger()
	dir := t.TempDir()

	accountService := accounts.NewService(log, q)
	_, err := accountService.Create(context.Background(), accounts.CreateAccountRequest{
		Email: testEmail, Password: testPassword, Role: accounts.RoleAdmin,
	})
	require.NoError(t, err)

	sessions, err := auth.NewManager(auth.Options{
		Secret:       "handler-test-secret",
		TTL:          24 * time.Hour,
		RefreshAfter: 30 * time.Minute,
		CookieName:   cookieName,
	})
	require.NoError(t, err)

	pipeline := imageproc.DefaultConfig()
	pipeline.StorageDir = dir
	pipeline.VariantWidths = []int{320, 160}

	activityService := activity.NewService(log, q)
	tileService := tiles.NewService(log, conn, q)
	mediaService := media.NewService(log, conn, q, pipeline)
	settingsService := settings.NewService(log, conn, q)

	srv := server.NewServer(log, server.Options{}, sessions,
		NewHealthHandler(log, conn, dir),
		NewAuthHandler(log, accountService, activityService, sessions, ratelimit.New(opts.loginAttempts, 15*time.Minute), 0),
		NewTilesHandler(log, tileService, activityService),
		NewMediaHandler(log, mediaService, activityService, ratelimit.New(opts.uploads, time.Hour), MediaOptions{
			MaxUploadBytes: opts.maxUpload,
			AllowedTypes:   []string{"image/jpeg", "image/png", "image/webp"},
		}),
		NewSettingsHandler(log, settingsService, activityService),
		NewPublicHandler(log, tileService),
		NewActivityHandler(log, activityService),
	)
	return &testEnv{t: t, srv: srv, sessions: sessions, activity: activityService, tiles: tileService, dir: dir}
}

// session is a logged-in client.
type session struct {
	cookie *http.Cookie
	csrf   string
}

func (e *testEnv) do(method, path string, body io.Reader, contentType string, s *session) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.RemoteAddr = "192.0.2.10:4000"
	if s != nil {
		req.AddCookie(s.cookie)
		if s.csrf != "" {
			req.Header.Set(auth.CSRFHeader, s.csrf)
		}
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) doJSON(method, path string, payload any, s *session) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(e.t, err)
		body = bytes.NewReader(raw)
	}
	return e.do(method, path, body, "application/json", s)
}

func (e *testEnv) login() *session {
	e.t.Helper()
	rec := e.doJSON(http.MethodPost, "/api/auth/login", LoginRequest{Email: testEmail, Password: testPassword}, nil)
	require.Equal(e.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SessionResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			return &session{cookie: c, csrf: resp.CSRFToken}
		}
	}
	e.t.Fatal("login did not set a session cookie")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorResponse](t, rec).Message
}

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func multipartBody(t *testing.T, field, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", strings.Repeat("x", 4)))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}
