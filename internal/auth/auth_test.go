package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Options{
		Secret:       "test-secret",
		TTL:          time.Hour,
		RefreshAfter: 30 * time.Minute,
		CookieName:   "folio_session",
	})
	require.NoError(t, err)
	return m
}

func TestIssueAndParse(t *testing.T) {
	m := newTestManager(t)
	token, claims, err := m.Issue(Subject{UserID: 7, Email: "a@example.com", Role: "admin"}, "")
	require.NoError(t, err)
	assert.Len(t, claims.CSRF, 64)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.Parse(token)
	require.NoError(t, err)
	id, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, "a@example.com", parsed.Email)
	assert.Equal(t, claims.CSRF, parsed.CSRF)
}

func TestParseRejects(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.Issue(Subject{UserID: 1}, "csrf")
	require.NoError(t, err)

	other, err := NewManager(Options{Secret: "other", TTL: time.Hour, CookieName: "x"})
	require.NoError(t, err)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = newTestManager(t).Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNeedsRefresh(t *testing.T) {
	m := newTestManager(t)
	_, claims, err := m.Issue(Subject{UserID: 1}, "")
	require.NoError(t, err)
	assert.False(t, m.NeedsRefresh(claims))

	m.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	assert.True(t, m.NeedsRefresh(claims))
}

func TestNewManagerValidates(t *testing.T) {
	_, err := NewManager(Options{TTL: time.Hour, CookieName: "x"})
	assert.Error(t, err)
	_, err = NewManager(Options{Secret: "s", CookieName: "x"})
	assert.Error(t, err)
	_, err = NewManager(Options{Secret: "s", TTL: time.Hour})
	assert.Error(t, err)
}
