// Package server provides the HTTP server and Echo setup for the folio API.
package server

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/memohai/folio/internal/auth"
	"github.com/memohai/folio/internal/logger"
)

const (
	contentSecurityPolicy = "default-src 'self'; img-src 'self' data: blob:; style-src 'self' 'unsafe-inline'; " +
		"script-src 'self'; font-src 'self' data:; connect-src 'self'; frame-ancestors 'none'; " +
		"base-uri 'self'; form-action 'self'; object-src 'none'"
	permissionsPolicy = "camera=(), microphone=(), geolocation=(), payment=(), usb=()"
	referrerPolicy    = "strict-origin-when-cross-origin"
)

// publicPaths are served without a session; publicPrefixes match subtrees.
var (
	publicPaths = map[string]bool{
		"/ping":             true,
		"/health":           true,
		"/api/health":       true,
		"/api/auth/login":   true,
		"/api/auth/logout":  true,
		"/api/swagger.json": true,
		"/api/docs":         true,
	}
	publicPrefixes = []string{"/api/public/", "/api/media/serve/", "/api/docs/"}
)

// Server is the HTTP server (Echo) with session middleware and registered handlers.
type Server struct {
	echo   *echo.Echo
	addr   string
	logger *slog.Logger
}

// Handler registers routes on the Echo instance.
type Handler interface {
	Register(e *echo.Echo)
}

// Options configure the middleware stack.
type Options struct {
	Addr          string
	CSPReportOnly bool
	CSPReportURI  string

	// TrustedProxies lists the CIDRs (or bare IPs) allowed to supply
	// X-Forwarded-For. Empty means the peer address is the client.
	TrustedProxies []string
}

// NewServer builds the Echo server with request ids, recovery, request
// logging, security headers, session and CSRF checks, and the given handlers.
func NewServer(log *slog.Logger, opts Options, sessions *auth.Manager, handlers ...Handler) *Server {
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(log, opts.TrustedProxies)
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", c.RealIP()),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	}))
	e.Use(securityHeaders(opts))
	if sessions != nil {
		e.Use(sessions.JWTMiddleware(log, IsPublic))
		e.Use(auth.CSRFMiddleware(IsPublic))
	}

	for _, h := range handlers {
		if h != nil {
			h.Register(e)
		}
	}

	return &Server{
		echo:   e,
		addr:   addr,
		logger: log.With(slog.String("component", "server")),
	}
}

// ipExtractor resolves c.RealIP. Forwarding headers are ignored unless the
// direct peer is inside one of the trusted ranges.
func ipExtractor(log *slog.Logger, proxies []string) echo.IPExtractor {
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, p := range proxies {
		ipNet, err := parseTrustedProxy(p)
		if err != nil {
			log.Warn("ignoring trusted proxy", slog.String("value", p), slog.Any("error", err))
			continue
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

func parseTrustedProxy(value string) (*net.IPNet, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "/") {
		_, ipNet, err := net.ParseCIDR(value)
		return ipNet, err
	}
	ip := net.ParseIP(value)
	if ip == nil {
		return nil, &net.ParseError{Type: "IP address", Text: value}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

// IsPublic reports whether the request path is served without a session.
func IsPublic(c echo.Context) bool {
	path := c.Request().URL.Path
	if publicPaths[path] {
		return true
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// requestLogger stores a logger tagged with the request id in the request
// context so services log with it via logger.FromContext.
func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			req := c.Request()
			ctx := logger.WithContext(req.Context(), log.With(slog.String("request_id", id)))
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func securityHeaders(opts Options) echo.MiddlewareFunc {
	csp := contentSecurityPolicy
	if opts.CSPReportURI != "" {
		csp += "; report-uri " + opts.CSPReportURI
	}
	secure := middleware.SecureWithConfig(middleware.SecureConfig{
		XFrameOptions:         "DENY",
		ContentTypeNosniff:    "nosniff",
		ReferrerPolicy:        referrerPolicy,
		ContentSecurityPolicy: csp,
		CSPReportOnly:         opts.CSPReportOnly,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return secure(func(c echo.Context) error {
			c.Response().Header().Set("Permissions-Policy", permissionsPolicy)
			return next(c)
		})
	}
}

// Echo exposes the configured instance for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start starts the HTTP server (blocks until shutdown).
func (s *Server) Start() error {
	s.logger.Info("listening", slog.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Stop gracefully shuts down the server using the given context.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
