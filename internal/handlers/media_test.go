package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/media"
	"github.com/memohai/folio/internal/tiles"
)

func upload(t *testing.T, env *testEnv, s *session, filename string, data []byte) *media.UploadResponse {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, data)
	rec := env.do(http.MethodPost, "/api/media", body, ct, s)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[media.UploadResponse](t, rec)
	return &resp
}

func TestUploadAndServe(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	s := env.login()

	resp := upload(t, env, s, "../../holiday.jpg", testJPEG(t, 640, 480))
	assert.True(t, resp.Success)
	assert.Equal(t, media.URL(resp.ID), resp.URL)
	assert.Equal(t, "holiday.jpg", resp.Media.OriginalName)
	assert.Equal(t, "jpeg", resp.Media.Format)
	require.NotEmpty(t, resp.Media.Sizes)

	rec := env.do(http.MethodGet, resp.URL, nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, mediaCacheControl, rec.Header().Get("Cache-Control"))

	rec = env.do(http.MethodGet, resp.Media.WebPURL, nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

	rec = env.do(http.MethodGet, resp.Media.Sizes[0].URL, nil, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, resp.URL+"?w=wide", nil, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, media.URL(resp.ID+100), nil, "", nil).Code)

	list := decode[media.ListResponse](t, env.do(http.MethodGet, "/api/media", nil, "", s))
	require.Len(t, list.Media, 1)
	assert.Equal(t, resp.ID, list.Media[0].ID)
	assert.NotContains(t, env.do(http.MethodGet, "/api/media", nil, "", s).Body.String(), env.dir)
}

func TestUploadRejections(t *testing.T) {
	env := newTestEnv(t, envOptions{maxUpload: 1024})
	s := env.login()

	body, ct := multipartBody(t, "", "", nil)
	rec := env.do(http.MethodPost, "/api/media", body, ct, s)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", errorMessage(t, rec))

	body, ct = multipartBody(t, "file", "big.jpg", bytes.Repeat([]byte{0xFF}, 4096))
	rec = env.do(http.MethodPost, "/api/media", body, ct, s)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "File too large", errorMessage(t, rec))

	body, ct = multipartBody(t, "file", "notes.jpg", []byte("just some text, not an image"))
	rec = env.do(http.MethodPost, "/api/media", body, ct, s)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid file type", errorMessage(t, rec))

	body, ct = multipartBody(t, "file", "a.jpg", testJPEG(t, 8, 8))
	rec = env.do(http.MethodPost, "/api/media", body, ct, &session{cookie: s.cookie})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/media", nil, "", nil).Code)
}

func TestUploadCorruptImage(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	s := env.login()

	data := testJPEG(t, 64, 64)
	body, ct := multipartBody(t, "file", "broken.jpg", data[:len(data)/3])
	rec := env.do(http.MethodPost, "/api/media", body, ct, s)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to process image", errorMessage(t, rec))
}

func TestUploadRateLimit(t *testing.T) {
	env := newTestEnv(t, envOptions{uploads: 1})
	s := env.login()

	upload(t, env, s, "one.jpg", testJPEG(t, 64, 48))
	body, ct := multipartBody(t, "file", "two.jpg", testJPEG(t, 64, 48))
	rec := env.do(http.MethodPost, "/api/media", body, ct, s)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Upload limit exceeded", errorMessage(t, rec))
}

func TestDeleteMediaInUse(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	s := env.login()

	up := upload(t, env, s, "bg.jpg", testJPEG(t, 320, 240))
	tile := createTile(t, env, s, map[string]any{
		"slug": "with-bg", "title": "BG", "target_url": "https://example.com", "bg_media_id": up.ID,
	})
	require.NotNil(t, tile.Media)
	assert.Equal(t, media.WebPURL(up.ID), tile.Media.PathWebP)

	feed := decode[tiles.PublicResponse](t, env.do(http.MethodGet, "/api/public/tiles", nil, "", nil))
	require.Len(t, feed.Tiles, 1)
	require.NotNil(t, feed.Tiles[0].Media)
	assert.Equal(t, media.URL(up.ID), feed.Tiles[0].Media.PathOriginal)

	path := fmt.Sprintf("/api/media/%d", up.ID)
	rec := env.do(http.MethodDelete, path, nil, "", s)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Media is in use", errorMessage(t, rec))

	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, fmt.Sprintf("/api/tiles/%d", tile.ID), nil, "", s).Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodDelete, path, nil, "", s).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, up.URL, nil, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, path, nil, "", s).Code)
}
