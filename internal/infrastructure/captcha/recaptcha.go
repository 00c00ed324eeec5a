// Package captcha verifies human-presence tokens against a reCAPTCHA-compatible
// siteverify endpoint.
package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
	"github.com/webgate/authportal/internal/pkg/metrics"
)

const (
	// DefaultVerifyURL is Google's reCAPTCHA siteverify endpoint.
	DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"
	defaultTimeout   = 5 * time.Second
	maxResponseBytes = 64 << 10
)

// ReplayGuard remembers tokens that were already presented.
type ReplayGuard interface {
	// Claim reports whether token is seen for the first time.
	Claim(ctx context.Context, token string) (bool, error)
}

// Config captures the verifier settings.
type Config struct {
	Secret    string
	VerifyURL string
	Timeout   time.Duration
}

// Verifier calls the siteverify endpoint once per token. It never retries:
// tokens are single-use, so a failed attempt needs a fresh token anyway.
type Verifier struct {
	secret    string
	verifyURL string
	timeout   time.Duration
	client    *http.Client
	guard     ReplayGuard
	log       zerolog.Logger
}

// Option customises a Verifier.
type Option func(*Verifier)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.client = c }
}

// WithReplayGuard rejects tokens that were already claimed.
func WithReplayGuard(g ReplayGuard) Option {
	return func(v *Verifier) { v.guard = g }
}

// NewVerifier returns a Verifier. Empty URL and non-positive timeout fall back to defaults.
func NewVerifier(cfg Config, log zerolog.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		timeout:   cfg.Timeout,
		client:    &http.Client{},
		log:       log,
	}
	if v.verifyURL == "" {
		v.verifyURL = DefaultVerifyURL
	}
	if v.timeout <= 0 {
		v.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type siteverifyResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// Verify returns nil when the service accepts token. See ports.CaptchaVerifier
// for the error contract.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.CaptchaVerificationsTotal.WithLabelValues("missing").Inc()
		return domain.ErrCaptchaMissing
	}

	if v.guard != nil {
		fresh, err := v.guard.Claim(ctx, token)
		switch {
		case err != nil:
			v.log.Warn().Err(err).Msg("captcha replay check failed, verifying anyway")
		case !fresh:
			metrics.CaptchaVerificationsTotal.WithLabelValues("replayed").Inc()
			return fmt.Errorf("token already used: %w", domain.ErrCaptchaRejected)
		}
	}

	resp, err := v.call(ctx, token, remoteIP)
	if err != nil {
		metrics.CaptchaVerificationsTotal.WithLabelValues("unavailable").Inc()
		v.log.Error().Err(err).Msg("captcha verification unavailable")
		return fmt.Errorf("%w: %w", domain.ErrCaptchaUnavailable, err)
	}

	if !resp.Success {
		metrics.CaptchaVerificationsTotal.WithLabelValues("rejected").Inc()
		v.log.Warn().Strs("error_codes", resp.ErrorCodes).Str("remote_ip", remoteIP).Msg("captcha rejected")
		return domain.ErrCaptchaRejected
	}

	metrics.CaptchaVerificationsTotal.WithLabelValues("ok").Inc()
	return nil
}

func (v *Verifier) call(ctx context.Context, token, remoteIP string) (*siteverifyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build siteverify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	res, err := v.client.Do(req)
	metrics.CaptchaRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("siteverify request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBytes))
		return nil, fmt.Errorf("siteverify returned status %d", res.StatusCode)
	}

	var out siteverifyResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode siteverify response: %w", err)
	}
	return &out, nil
}
