package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/webgate/authportal/internal/core/domain"
)

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) Token(*http.Request) (string, error) { return s.token, s.err }

type stubAuthorizer map[string]domain.Identity

func (s stubAuthorizer) Authorize(token string) (domain.Identity, bool) {
	id, ok := s[token]
	return id, ok
}

var alice = domain.Identity{Username: "alice", Email: "a@x.com"}

func TestRequireSession_ValidSession(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	mw := RequireSession(stubTokens{token: "tok"}, stubAuthorizer{"tok": alice}, "/login.html", zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		called = true
		if c.Get(IdentityKey) != alice {
			t.Fatalf("identity not set: %v", c.Get(IdentityKey))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderCacheControl) != "no-store" {
		t.Fatalf("expected no-store on protected response")
	}
}

func TestRequireSession_MissingCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequireSession(stubTokens{err: errors.New("no cookie")}, stubAuthorizer{}, "/login.html", zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/login.html" {
		t.Fatalf("expected redirect to /login.html, got %q", loc)
	}
}

func TestRequireSession_UnknownSession(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/contact", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	mw := RequireSession(stubTokens{token: "destroyed"}, stubAuthorizer{"tok": alice}, "/login.html", zerolog.Nop())
	handler := mw(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if c.Get(IdentityKey) != nil {
		t.Fatalf("identity must not be set on deny")
	}
}
