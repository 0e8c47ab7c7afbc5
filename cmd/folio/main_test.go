package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/accounts"
	"github.com/memohai/folio/internal/imageproc"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(`
[log]
level = "error"

[database]
path = %q

[media]
storage_dir = %q

[backup]
dir = %q
keep_days = 7
`, filepath.Join(dir, "folio.db"), filepath.Join(dir, "uploads"), filepath.Join(dir, "backups"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path, dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FOLIO_DB_PATH", "")
	t.Setenv("FOLIO_UPLOAD_DIR", "")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "folio "))
	assert.Contains(t, out, "go ")
}

func TestSeedIsIdempotent(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "", "--config", cfgPath, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 4 of 4")

	out, err = run(t, "", "--config", cfgPath, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 0 of 4")

	out, err = run(t, "", "--config", cfgPath, "tiles")
	require.NoError(t, err)
	assert.Contains(t, out, "paris")
	assert.Contains(t, out, "4 tiles, 4 public")
}

func TestMigrateCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := run(t, "", "--config", cfgPath, "migrate", "up")
	require.NoError(t, err)
	_, err = run(t, "", "--config", cfgPath, "migrate", "version")
	require.NoError(t, err)
	_, err = run(t, "", "--config", cfgPath, "migrate", "sideways")
	assert.Error(t, err)
	_, err = run(t, "", "--config", cfgPath, "migrate")
	assert.Error(t, err)
}

func TestUserPasswd(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	cfg, log, err := (&rootOptions{configPath: cfgPath}).load()
	require.NoError(t, err)

	conn, queries, err := openStore(context.Background(), log, cfg, true)
	require.NoError(t, err)
	svc := accounts.NewService(log, queries)
	_, err = svc.Create(context.Background(), accounts.CreateAccountRequest{Email: "me@example.com", Password: "old-pass"})
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	out, err := run(t, "new-pass\n", "--config", cfgPath, "user", "passwd", "me@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "password updated")

	_, err = run(t, "x\n", "--config", cfgPath, "user", "passwd", "ghost@example.com")
	assert.ErrorContains(t, err, "no account")

	_, err = run(t, "\n", "--config", cfgPath, "user", "passwd", "me@example.com")
	assert.ErrorContains(t, err, "password is required")

	conn, queries, err = openStore(context.Background(), log, cfg, false)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	_, err = accounts.NewService(log, queries).Login(context.Background(), "me@example.com", "new-pass")
	assert.NoError(t, err)
}

func TestIngestCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	img := image.NewNRGBA(image.Rect(0, 0, 800, 600))
	for y := 0; y < 600; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	src := filepath.Join(dir, "photo.png")
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o600))
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "", "--config", cfgPath, "ingest", "--out", outDir, src)
	require.NoError(t, err)

	var art imageproc.Artifact
	require.NoError(t, json.Unmarshal([]byte(out), &art))
	assert.Equal(t, imageproc.FormatPNG, art.Format)
	assert.Equal(t, 450, art.Width)
	assert.Equal(t, 600, art.Height)
	assert.Equal(t, outDir, filepath.Dir(art.PrimaryPath))
	assert.FileExists(t, art.PrimaryPath)
	assert.FileExists(t, art.WebPPath)
	assert.Empty(t, art.Variants, "every default width exceeds the cropped width")

	_, err = run(t, "", "--config", cfgPath, "ingest", "--out", outDir, cfgPath)
	assert.ErrorContains(t, err, "unsupported_type")
}

func TestBackupCommand(t *testing.T) {
	cfgPath, dir := writeConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "uploads"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uploads", "a.jpg"), []byte("x"), 0o600))

	out, err := run(t, "", "--config", cfgPath, "backup")
	require.NoError(t, err)
	var res struct {
		Database string `json:"database"`
		Uploads  string `json:"uploads"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.FileExists(t, res.Database)
	assert.FileExists(t, res.Uploads)
}
