package api

import (
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/webgate/authportal/docs"
	"github.com/webgate/authportal/internal/api/handler"
	"github.com/webgate/authportal/internal/api/middleware"
	"github.com/webgate/authportal/internal/core/ports"
)

const (
	LoginPage    = "/login.html"
	RegisterPage = "/register.html"
	HomePath     = "/"
)

// Deps is everything the router needs from the composition root.
type Deps struct {
	Log      zerolog.Logger
	Auth     ports.AuthService
	Contact  ports.ContactService
	Sessions ports.SessionManager
	Cookies  handler.SessionCookies
	Access   middleware.Authorizer
	Checks   map[string]handler.CheckFunc

	PublicDir              string
	HideLoginFailureReason bool
	RateLimitRPS           float64
	RateLimitBurst         int
	// TrustedProxies are the only peers whose X-Forwarded-For is believed.
	TrustedProxies []*net.IPNet
	// Metrics mounts /metrics and the request metrics middleware.
	Metrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.HideLoginFailureReason)
	e.IPExtractor = ipExtractor(d.TrustedProxies)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(accessLog(d.Log))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "0",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		HSTSMaxAge:         15552000,
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(echomiddleware.BodyLimit("64K"))
	if d.Metrics {
		e.Use(echoprometheus.NewMiddleware("authportal"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Sessions, d.Cookies, LoginPage, HomePath)
	contactHandler := handler.NewContactHandler(d.Contact)
	requireSession := middleware.RequireSession(d.Cookies, d.Access, LoginPage, d.Log)
	limit := rateLimiter(d.RateLimitRPS, d.RateLimitBurst)

	// --- Public pages ---
	e.File(LoginPage, filepath.Join(d.PublicDir, "login.html"))
	e.File(RegisterPage, filepath.Join(d.PublicDir, "register.html"))

	// --- Auth routes ---
	e.POST("/register", authHandler.Register, limit)
	e.POST("/login", authHandler.Login, limit)
	e.GET("/logout", authHandler.Logout)

	// --- Session-protected routes ---
	index := filepath.Join(d.PublicDir, "index.html")
	e.GET(HomePath, func(c echo.Context) error { return c.File(index) }, requireSession)
	e.GET("/me", authHandler.Me, requireSession)
	e.POST("/contact", contactHandler.Submit, requireSession, limit)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// accessLog writes one zerolog entry per request.
func accessLog(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// ipExtractor decides what c.RealIP returns, and with it the rate-limit key,
// the remoteip sent to the captcha service and the audited address. Forwarding
// headers count only when the direct peer is a configured proxy.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// rateLimiter limits credential and contact submissions per client IP.
func rateLimiter(rps float64, burst int) echo.MiddlewareFunc {
	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(rps),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(_ echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "Unable to identify client").SetInternal(err)
		},
		DenyHandler: func(_ echo.Context, _ string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests").SetInternal(err)
		},
	})
}
