package domain

import "errors"

// Validation errors: reported immediately, nothing else is attempted.
var (
	ErrCaptchaMissing = errors.New("captcha missing")
	ErrInvalidInput   = errors.New("invalid input")
)

// Captcha verdicts. Rejected means the verification service said no;
// unavailable means it could not be asked (network, timeout, bad reply).
var (
	ErrCaptchaRejected    = errors.New("captcha rejected")
	ErrCaptchaUnavailable = errors.New("captcha verification unavailable")
)

var ErrEmailTaken = errors.New("email already registered")

// Credential errors. They are kept distinct; the HTTP layer decides whether
// to reveal which one occurred.
var (
	ErrUnknownEmail = errors.New("unknown email")
	ErrBadPassword  = errors.New("bad password")
)

var ErrStorage = errors.New("storage failure")

// Reason maps an error to the short label used in audit events and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCaptchaMissing):
		return "captcha_missing"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrCaptchaRejected):
		return "captcha_rejected"
	case errors.Is(err, ErrCaptchaUnavailable):
		return "captcha_unavailable"
	case errors.Is(err, ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, ErrUnknownEmail):
		return "unknown_email"
	case errors.Is(err, ErrBadPassword):
		return "bad_password"
	case errors.Is(err, ErrStorage):
		return "storage_failure"
	default:
		return "error"
	}
}
