package captcha

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webgate/authportal/internal/core/domain"
)

func newServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newVerifier(url string, opts ...Option) *Verifier {
	return NewVerifier(Config{Secret: "s3cret", VerifyURL: url, Timeout: time.Second}, zerolog.Nop(), opts...)
}

func TestVerifier_Success(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "s3cret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "10.0.0.1", r.PostForm.Get("remoteip"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"challenge_ts":"2026-10-18T10:00:00Z","hostname":"localhost"}`))
	})

	require.NoError(t, newVerifier(srv.URL).Verify(context.Background(), "tok", "10.0.0.1"))
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestVerifier_Rejected(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response"]}`))
	})

	err := newVerifier(srv.URL).Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, domain.ErrCaptchaRejected)
	assert.NotErrorIs(t, err, domain.ErrCaptchaUnavailable)
}

func TestVerifier_MissingTokenMakesNoCall(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	for _, token := range []string{"", "   "} {
		err := newVerifier(srv.URL).Verify(context.Background(), token, "")
		assert.ErrorIs(t, err, domain.ErrCaptchaMissing)
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestVerifier_FailsClosed(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"malformed body": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>oops</html>`))
		},
		"timeout": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv, calls := newServer(t, handler)
			v := NewVerifier(Config{Secret: "s", VerifyURL: srv.URL, Timeout: 100 * time.Millisecond}, zerolog.Nop())

			err := v.Verify(context.Background(), "tok", "")
			assert.ErrorIs(t, err, domain.ErrCaptchaUnavailable)
			assert.NotErrorIs(t, err, domain.ErrCaptchaRejected)
			assert.EqualValues(t, 1, atomic.LoadInt32(calls), "no retries")
		})
	}
}

func TestVerifier_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := newVerifier(url).Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, domain.ErrCaptchaUnavailable)
}

type memoryGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (g *memoryGuard) Claim(_ context.Context, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.seen[token] {
		return false, nil
	}
	g.seen[token] = true
	return true, nil
}

func TestVerifier_ReplayGuard(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	v := newVerifier(srv.URL, WithReplayGuard(&memoryGuard{seen: map[string]bool{}}))

	require.NoError(t, v.Verify(context.Background(), "tok", ""))
	err := v.Verify(context.Background(), "tok", "")
	assert.ErrorIs(t, err, domain.ErrCaptchaRejected)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls), "replayed token must not reach the service")
}

func TestVerifier_ReplayGuardErrorIsIgnored(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	v := newVerifier(srv.URL, WithReplayGuard(&memoryGuard{err: errors.New("redis down")}))

	assert.NoError(t, v.Verify(context.Background(), "tok", ""))
}
