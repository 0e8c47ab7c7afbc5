// Package handlers provides the HTTP API handlers for the folio server.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/memohai/folio/internal/accounts"
	"github.com/memohai/folio/internal/activity"
	"github.com/memohai/folio/internal/auth"
	"github.com/memohai/folio/internal/ratelimit"
)

// AuthHandler serves login, logout and the current session.
type AuthHandler struct {
	accountService  *accounts.Service
	activityService *activity.Service
	sessions        *auth.Manager
	limiter         *ratelimit.Limiter
	loginDelay      time.Duration
	logger          *slog.Logger
}

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// SessionResponse carries the signed-in user and the CSRF token the client
// must echo on unsafe requests.
type SessionResponse struct {
	Success   bool        `json:"success"`
	User      SessionUser `json:"user"`
	CSRFToken string      `json:"csrf_token"`
	ExpiresAt string      `json:"expires_at,omitempty"`
}

// SessionUser is the public view of the signed-in account.
type SessionUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func sessionUser(a accounts.Account) SessionUser {
	return SessionUser{ID: a.ID, Email: a.Email, Role: a.Role}
}

// NewAuthHandler creates an auth handler. limiter bounds attempts per
// client IP; loginDelay is applied to every attempt that reaches the
// credential check.
func NewAuthHandler(log *slog.Logger, accountService *accounts.Service, activityService *activity.Service, sessions *auth.Manager, limiter *ratelimit.Limiter, loginDelay time.Duration) *AuthHandler {
	return &AuthHandler{
		accountService:  accountService,
		activityService: activityService,
		sessions:        sessions,
		limiter:         limiter,
		loginDelay:      loginDelay,
		logger:          log.With(slog.String("handler", "auth")),
	}
}

// Register mounts the /api/auth routes on the Echo instance.
func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/api/auth/login", h.Login)
	e.POST("/api/auth/logout", h.Logout)
	e.GET("/api/auth/me", h.Me)
}

// Login godoc
// @Summary Login
// @Description Validate credentials and set the session cookie
// @Tags auth
// @Param payload body LoginRequest true "Login request"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	ip := c.RealIP()
	key := "login:" + ip
	if !h.limiter.Allow(key) {
		h.logger.Warn("login rate limited", slog.String("remote_ip", ip))
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)

	ctx := c.Request().Context()
	h.delay(ctx)
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password required")
	}

	account, err := h.accountService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			h.logger.Info("login failed", slog.String("remote_ip", ip))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
		}
		h.logger.Error("login", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}

	token, claims, err := h.sessions.Issue(auth.Subject{UserID: account.ID, Email: account.Email, Role: account.Role}, "")
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	h.sessions.SetCookie(c, token, claims.ExpiresAt.Time)
	h.limiter.Reset(key)
	h.activityService.Record(ctx, activity.Entry{
		UserID:     &account.ID,
		Action:     activity.ActionLogin,
		EntityType: "user",
		EntityID:   &account.ID,
	})

	return c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		User:      sessionUser(account),
		CSRFToken: claims.CSRF,
		ExpiresAt: expiresAt(claims),
	})
}

// Logout clears the session cookie. It succeeds without a session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if claims, ok := h.sessions.SessionFromRequest(c); ok {
		if id, err := claims.UserID(); err == nil {
			h.activityService.Record(c.Request().Context(), activity.Entry{
				UserID:     &id,
				Action:     activity.ActionLogout,
				EntityType: "user",
				EntityID:   &id,
			})
		}
	}
	h.sessions.ClearCookie(c)
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Me returns the signed-in account and its CSRF token.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := auth.ClaimsFromContext(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	id, err := claims.UserID()
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	account, err := h.accountService.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			h.sessions.ClearCookie(c)
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
	return c.JSON(http.StatusOK, SessionResponse{
		Success:   true,
		User:      sessionUser(account),
		CSRFToken: claims.CSRF,
		ExpiresAt: expiresAt(claims),
	})
}

func expiresAt(claims *auth.Claims) string {
	if claims.ExpiresAt == nil {
		return ""
	}
	return claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
}

func (h *AuthHandler) delay(ctx context.Context) {
	if h.loginDelay <= 0 {
		return
	}
	t := time.NewTimer(h.loginDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
