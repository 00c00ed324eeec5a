package ports

import "context"

// CaptchaVerifier checks a human-verification token with an external service.
// It returns nil on success, domain.ErrCaptchaMissing for an empty token,
// domain.ErrCaptchaRejected when the service refuses the token and
// domain.ErrCaptchaUnavailable when the service could not be reached.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}
