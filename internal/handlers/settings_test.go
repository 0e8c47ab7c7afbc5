package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/settings"
)

func TestSettingsRoundTrip(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/settings", nil, "", nil).Code)

	s := env.login()
	rec := env.do(http.MethodGet, "/api/settings", nil, "", s)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[settings.Response](t, rec).Settings, settings.KeyBrandPrimary)

	rec = env.doJSON(http.MethodPut, "/api/settings", settings.UpdateRequest{Settings: map[string]string{
		settings.KeyHeroText: "<i>Studio</i> North",
	}}, s)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Studio North", decode[settings.Response](t, rec).Settings[settings.KeyHeroText])

	rec = env.doJSON(http.MethodPut, "/api/settings", settings.UpdateRequest{Settings: map[string]string{"Not Valid": "x"}}, s)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.doJSON(http.MethodPut, "/api/settings", settings.UpdateRequest{}, s)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No settings provided", errorMessage(t, rec))
}
