package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/api/handler"
	"github.com/webgate/authportal/internal/core/domain"
)

// genericLoginFailure replaces the unknown-email and bad-password messages
// when login failure reasons are hidden.
const genericLoginFailure = "Invalid email or password"

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs unexpected errors without leaking details to the client.
//   - Renders plain text, or {"error": "<message>"} when the client asks for JSON.
func NewHTTPErrorHandler(log zerolog.Logger, hideLoginReason bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, hideLoginReason, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		if handler.WantsJSON(c) {
			_ = c.JSON(code, errorResponse{Error: msg})
			return
		}
		_ = c.String(code, msg)
	}
}

func resolveError(err error, hideLoginReason bool, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, validation, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			log.Debug().Err(he.Internal).Str("path", c.Path()).Msg("http error")
		}
		return he.Code, httpErrorMessage(he)
	}

	switch {
	case errors.Is(err, domain.ErrCaptchaMissing):
		return http.StatusBadRequest, "Captcha missing"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, domain.ErrCaptchaRejected):
		return http.StatusForbidden, "Captcha invalid"
	case errors.Is(err, domain.ErrCaptchaUnavailable):
		return http.StatusServiceUnavailable, "Captcha verification unavailable, try again later"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, domain.ErrUnknownEmail):
		if hideLoginReason {
			return http.StatusUnauthorized, genericLoginFailure
		}
		return http.StatusUnauthorized, "Unknown email"
	case errors.Is(err, domain.ErrBadPassword):
		if hideLoginReason {
			return http.StatusUnauthorized, genericLoginFailure
		}
		return http.StatusUnauthorized, "Incorrect password"
	case errors.Is(err, domain.ErrStorage):
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("storage failure")
		return http.StatusInternalServerError, "Internal server error"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error"
}

func httpErrorMessage(he *echo.HTTPError) string {
	msg := fmt.Sprintf("%v", he.Message)
	if he.Code >= http.StatusInternalServerError && he.Code != http.StatusServiceUnavailable {
		return http.StatusText(he.Code)
	}
	return strings.TrimSpace(msg)
}
