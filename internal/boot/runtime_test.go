package boot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/config"
)

func TestProvideRuntimeConfigRequiresSecret(t *testing.T) {
	t.Setenv("FOLIO_SESSION_SECRET", "")
	_, err := ProvideRuntimeConfig(config.Default())
	assert.Error(t, err)
}

func TestProvideRuntimeConfigParsesDefaults(t *testing.T) {
	t.Setenv("FOLIO_SESSION_SECRET", "")
	t.Setenv("FOLIO_UPLOAD_DIR", "")
	cfg := config.Default()
	cfg.Auth.SessionSecret = "s3cret"

	rc, err := ProvideRuntimeConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, rc.SessionTTL)
	assert.Equal(t, 30*time.Minute, rc.RefreshAfter)
	assert.Equal(t, time.Second, rc.LoginDelay)
	assert.Equal(t, int64(10<<20), rc.MaxUploadBytes)
	assert.Equal(t, Limit{N: 5, Window: 15 * time.Minute}, rc.LoginLimit)
	assert.Equal(t, Limit{N: 20, Window: time.Hour}, rc.UploadLimit)
	assert.Equal(t, 75, rc.Pipeline.Quality)
	assert.Equal(t, "uploads", rc.Pipeline.StorageDir)
}

func TestProvideRuntimeConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("FOLIO_SESSION_SECRET", "from-env")
	t.Setenv("FOLIO_DB_PATH", "/tmp/site.db")
	t.Setenv("FOLIO_UPLOAD_DIR", "/srv/uploads")

	rc, err := ProvideRuntimeConfig(config.Default())
	require.NoError(t, err)
	assert.Equal(t, ":7000", rc.ServerAddr)
	assert.Equal(t, "from-env", rc.SessionSecret)
	assert.Equal(t, "/tmp/site.db", rc.DBPath)
	assert.Equal(t, "/srv/uploads", rc.Pipeline.StorageDir)
}

func TestProvideRuntimeConfigRejectsBadInput(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.SessionSecret = "x"
	cfg.Auth.SessionTTL = "forever"
	_, err := ProvideRuntimeConfig(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Auth.SessionSecret = "x"
	cfg.Media.Widths = []int{480, 768}
	_, err = ProvideRuntimeConfig(cfg)
	assert.Error(t, err)
}
