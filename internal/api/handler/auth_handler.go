package handler

import (
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/core/ports"
	"github.com/webgate/authportal/internal/pkg/metrics"
)

// SessionCookies turns session tokens into cookies and back.
type SessionCookies interface {
	Cookie(token string) (*http.Cookie, error)
	Expired() *http.Cookie
	Token(r *http.Request) (string, error)
}

type AuthHandler struct {
	authService ports.AuthService
	sessions    ports.SessionManager
	cookies     SessionCookies
	loginPath   string
	homePath    string
}

func NewAuthHandler(authService ports.AuthService, sessions ports.SessionManager, cookies SessionCookies, loginPath, homePath string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		cookies:     cookies,
		loginPath:   loginPath,
		homePath:    homePath,
	}
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       x-www-form-urlencoded,json
// @Produce      html,json
// @Param        username      formData  string  true  "Display name"
// @Param        email         formData  string  true  "Email (unique, case-sensitive)"
// @Param        password      formData  string  true  "Password"
// @Param        captchaToken  formData  string  true  "Captcha token"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse  "captcha missing, invalid input or email taken"
// @Failure      403  {object}  errorResponse  "captcha rejected"
// @Failure      500  {object}  errorResponse  "storage failure"
// @Failure      503  {object}  errorResponse  "captcha service unavailable"
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.CaptchaToken = captchaToken(req.CaptchaToken, req.LegacyCaptcha)
	if req.CaptchaToken == "" {
		metrics.RegistrationsTotal.WithLabelValues(domain.Reason(domain.ErrCaptchaMissing)).Inc()
		return domain.ErrCaptchaMissing
	}
	if err := c.Validate(&req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(domain.Reason(domain.ErrInvalidInput)).Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.RealIP(),
	})
	metrics.RegistrationsTotal.WithLabelValues(domain.Reason(err)).Inc()
	if err != nil {
		return err
	}

	identity := account.Identity()
	return reply(c, http.StatusOK,
		messageResponse{Message: "registration successful", User: &identity},
		`Registration successful! <a href="`+html.EscapeString(h.loginPath)+`">Log in</a>`,
	)
}

// Login checks credentials and starts a session.
//
// @Summary      Log in
// @Tags         auth
// @Accept       x-www-form-urlencoded,json
// @Param        email         formData  string  true  "Email"
// @Param        password      formData  string  true  "Password"
// @Param        captchaToken  formData  string  true  "Captcha token"
// @Success      302  "Redirect to / with the session cookie set"
// @Failure      400  {object}  errorResponse  "captcha missing or invalid input"
// @Failure      401  {object}  errorResponse  "unknown email or bad password"
// @Failure      403  {object}  errorResponse  "captcha rejected"
// @Failure      503  {object}  errorResponse  "captcha service unavailable"
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.CaptchaToken = captchaToken(req.CaptchaToken, req.LegacyCaptcha)
	if req.CaptchaToken == "" {
		metrics.LoginsTotal.WithLabelValues(domain.Reason(domain.ErrCaptchaMissing)).Inc()
		return domain.ErrCaptchaMissing
	}
	if err := c.Validate(&req); err != nil {
		metrics.LoginsTotal.WithLabelValues(domain.Reason(domain.ErrInvalidInput)).Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.RealIP(),
	})
	metrics.LoginsTotal.WithLabelValues(domain.Reason(err)).Inc()
	if err != nil {
		return err
	}

	// A session carried in from before the login is never reused.
	if old, err := h.cookies.Token(c.Request()); err == nil {
		h.sessions.Destroy(old)
	}

	token, err := h.sessions.Create(*identity)
	if err != nil {
		return err
	}
	cookie, err := h.cookies.Cookie(token)
	if err != nil {
		h.sessions.Destroy(token)
		return err
	}
	c.SetCookie(cookie)

	return c.Redirect(http.StatusFound, h.homePath)
}

// Logout ends the session. It always succeeds.
//
// @Summary      Log out
// @Tags         auth
// @Success      302  "Redirect to the login page"
// @Router       /logout [get]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token, err := h.cookies.Token(c.Request()); err == nil {
		if identity, ok := h.sessions.Validate(token); ok {
			h.authService.Logout(c.Request().Context(), identity, c.RealIP())
		}
		h.sessions.Destroy(token)
	}
	c.SetCookie(h.cookies.Expired())
	metrics.LogoutsTotal.Inc()

	return c.Redirect(http.StatusFound, h.loginPath)
}

// Me returns the identity bound to the current session.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Identity
// @Failure      302  "Redirect to the login page without a session"
// @Router       /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, identity)
}
