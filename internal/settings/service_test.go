package settings

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/folio/internal/db/dbtest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, q := dbtest.Open(t)
	return NewService(dbtest.Logger(), conn, q)
}

func TestAllReturnsSeededDefaults(t *testing.T) {
	svc := newTestService(t)
	all, err := svc.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "#6366f1", all[KeyBrandPrimary])
	assert.Equal(t, "normal", all[KeyAnimationSpeed])
	assert.Contains(t, all, KeyLogoMediaID)
}

func TestUpdateUpsertsAndSanitizes(t *testing.T) {
	svc := newTestService(t)
	got, err := svc.Update(context.Background(), map[string]string{
		KeyHeroText: "  <script>alert(1)</script>Jane Doe ",
		"footer":    "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got[KeyHeroText])
	assert.Equal(t, "hello", got["footer"])
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, map[string]string{KeyHeroText: "ok", "Bad-Key": "x"})
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = svc.Update(ctx, map[string]string{KeyHeroText: "ok", "long": strings.Repeat("a", MaxValueLength+1)})
	assert.ErrorIs(t, err, ErrValueTooLong)

	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Your Name", all[KeyHeroText])

	_, err = svc.Update(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSettings)
}
