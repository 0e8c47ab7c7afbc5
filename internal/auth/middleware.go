package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CSRFHeader and CSRFField are where unsafe requests carry the token.
const (
	CSRFHeader = "X-CSRF-Token"
	CSRFField  = "csrf_token"
)

// JWTMiddleware authenticates requests from the session cookie. Sessions
// older than RefreshAfter are reissued with a new id and the same CSRF token.
func (m *Manager) JWTMiddleware(log *slog.Logger, skipper middleware.Skipper) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:     skipper,
		SigningKey:  m.secret,
		TokenLookup: "cookie:" + m.cookieName,
		ContextKey:  ContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := m.Parse(auth)
			if err != nil {
				return nil, err
			}
			return &jwt.Token{Claims: claims, Valid: true, Method: jwt.SigningMethodHS256}, nil
		},
		SuccessHandler: func(c echo.Context) {
			claims, err := ClaimsFromContext(c)
			if err != nil || !m.NeedsRefresh(claims) {
				return
			}
			if err := m.Refresh(c, claims); err != nil {
				log.Warn("session refresh failed", slog.Any("error", err))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		},
	})
}

// Refresh reissues the session carried by claims and stores it on c.
func (m *Manager) Refresh(c echo.Context, claims *Claims) error {
	id, err := claims.UserID()
	if err != nil {
		return err
	}
	token, fresh, err := m.Issue(Subject{UserID: id, Email: claims.Email, Role: claims.Role}, claims.CSRF)
	if err != nil {
		return err
	}
	m.SetCookie(c, token, fresh.ExpiresAt.Time)
	c.Set(ContextKey, &jwt.Token{Claims: fresh, Valid: true, Method: jwt.SigningMethodHS256})
	return nil
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(m.now()).Seconds()),
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionFromRequest parses the session cookie without requiring one.
func (m *Manager) SessionFromRequest(c echo.Context) (*Claims, bool) {
	cookie, err := c.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	claims, err := m.Parse(cookie.Value)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// CSRFMiddleware rejects unsafe requests whose token does not match the
// session. Requests without a session are left to the JWT middleware.
func CSRFMiddleware(skipper middleware.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = middleware.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) || isSafeMethod(c.Request().Method) {
				return next(c)
			}
			claims, err := ClaimsFromContext(c)
			if err != nil {
				return next(c)
			}
			token := c.Request().Header.Get(CSRFHeader)
			if token == "" && isURLEncodedForm(c.Request()) {
				token = c.FormValue(CSRFField)
			}
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(claims.CSRF)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid CSRF token")
			}
			return next(c)
		}
	}
}

// isURLEncodedForm reports whether the form field may be consulted. Multipart
// bodies must carry the header so the body is not parsed ahead of the
// route's size limit.
func isURLEncodedForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get(echo.HeaderContentType), echo.MIMEApplicationForm)
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// ClaimsFromContext returns the authenticated session claims.
func ClaimsFromContext(c echo.Context) (*Claims, error) {
	token, ok := c.Get(ContextKey).(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoSession
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrNoSession
	}
	return claims, nil
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(c echo.Context) (int64, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	id, err := claims.UserID()
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return id, nil
}
