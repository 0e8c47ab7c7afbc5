// Package auth issues session tokens and provides the echo middleware that
// authenticates requests and enforces CSRF tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ContextKey is where the parsed *jwt.Token is stored on echo.Context.
const ContextKey = "user"

var (
	// ErrNoSession is returned when the request carries no valid session.
	ErrNoSession = errors.New("authentication required")
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("invalid session token")
)

// Claims is the session payload. Subject holds the user id and ID the
// session id.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	CSRF  string `json:"csrf"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Options configure a Manager.
type Options struct {
	Secret       string
	TTL          time.Duration
	RefreshAfter time.Duration
	CookieName   string
	CookieSecure bool
}

// Manager signs and verifies HS256 session tokens.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	refreshAfter time.Duration
	cookieName   string
	cookieSecure bool
	now          func() time.Time
}

// NewManager validates opts and returns a Manager.
func NewManager(opts Options) (*Manager, error) {
	if opts.Secret == "" {
		return nil, errors.New("session secret is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if opts.CookieName == "" {
		return nil, errors.New("cookie name is required")
	}
	return &Manager{
		secret:       []byte(opts.Secret),
		ttl:          opts.TTL,
		refreshAfter: opts.RefreshAfter,
		cookieName:   opts.CookieName,
		cookieSecure: opts.CookieSecure,
		now:          time.Now,
	}, nil
}

// Subject identifies the user a session is issued for.
type Subject struct {
	UserID int64
	Email  string
	Role   string
}

// Issue signs a fresh session for sub. An empty csrf generates a new token.
func (m *Manager) Issue(sub Subject, csrf string) (string, *Claims, error) {
	if csrf == "" {
		var err error
		if csrf, err = NewCSRFToken(); err != nil {
			return "", nil, err
		}
	}
	now := m.now()
	claims := &Claims{
		Email: sub.Email,
		Role:  sub.Role,
		CSRF:  csrf,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(sub.UserID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign session: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies token and returns its claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}

// NeedsRefresh reports whether claims were issued more than RefreshAfter ago.
func (m *Manager) NeedsRefresh(claims *Claims) bool {
	if m.refreshAfter <= 0 || claims.IssuedAt == nil {
		return false
	}
	return m.now().Sub(claims.IssuedAt.Time) >= m.refreshAfter
}

func (m *Manager) keyFunc(t *jwt.Token) (interface{}, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return m.secret, nil
}

// NewCSRFToken returns 32 random bytes, hex encoded.
func NewCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
