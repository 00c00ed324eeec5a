package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/webgate/authportal/internal/api/middleware"
	"github.com/webgate/authportal/internal/core/domain"
)

// ctxIdentity returns the identity injected by RequireSession. Its absence
// means the route was mounted without the middleware.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := c.Get(middleware.IdentityKey).(domain.Identity)
	if !ok || identity.Email == "" {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing session identity")
	}
	return identity, nil
}

// captchaToken prefers the explicit field and falls back to the field the
// reCAPTCHA widget posts by default (g-recaptcha-response), in form and JSON
// bodies alike.
func captchaToken(explicit, legacy string) string {
	if t := strings.TrimSpace(explicit); t != "" {
		return t
	}
	return strings.TrimSpace(legacy)
}

// WantsJSON reports whether the client asked for a JSON response.
func WantsJSON(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}

// reply writes msg as JSON or as HTML text depending on the client.
func reply(c echo.Context, status int, msg messageResponse, html string) error {
	if WantsJSON(c) {
		return c.JSON(status, msg)
	}
	return c.HTML(status, html)
}
