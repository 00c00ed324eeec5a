package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
)

// IdentityKey is the echo context key holding the domain.Identity of the
// signed-in user.
const IdentityKey = "identity"

// TokenReader extracts the session token from a request.
type TokenReader interface {
	Token(r *http.Request) (string, error)
}

// Authorizer decides whether a session token grants access.
type Authorizer interface {
	Authorize(token string) (domain.Identity, bool)
}

// RequireSession lets the request through only with a live session and
// injects its identity into the context. Anything else is redirected to
// loginPath.
func RequireSession(tokens TokenReader, authz Authorizer, loginPath string, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := tokens.Token(c.Request())
			if err != nil {
				log.Debug().Str("path", c.Path()).Msg("no valid session cookie")
				return c.Redirect(http.StatusFound, loginPath)
			}

			identity, ok := authz.Authorize(token)
			if !ok {
				log.Debug().Str("path", c.Path()).Msg("session not found or expired")
				return c.Redirect(http.StatusFound, loginPath)
			}

			c.Set(IdentityKey, identity)
			c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
			return next(c)
		}
	}
}
