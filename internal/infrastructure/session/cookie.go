package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidCookie is returned for cookie values that were not issued by this
// server or were tampered with.
var ErrInvalidCookie = errors.New("invalid session cookie")

// DefaultCookieName is used when CookieConfig.Name is empty.
const DefaultCookieName = "sid"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secret string
	Secure bool
	MaxAge time.Duration
}

type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs session tokens into cookie values and back. The signed
// value carries only the opaque token; session contents stay server-side.
type CookieCodec struct {
	name   string
	secret []byte
	secure bool
	maxAge time.Duration
	parser *jwt.Parser
}

func NewCookieCodec(cfg CookieConfig) *CookieCodec {
	name := cfg.Name
	if name == "" {
		name = DefaultCookieName
	}
	return &CookieCodec{
		name:   name,
		secret: []byte(cfg.Secret),
		secure: cfg.Secure,
		maxAge: cfg.MaxAge,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Name returns the cookie name.
func (c *CookieCodec) Name() string {
	return c.name
}

// Encode signs token.
func (c *CookieCodec) Encode(token string) (string, error) {
	claims := cookieClaims{
		SessionID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies value and returns the session token inside it.
func (c *CookieCodec) Decode(value string) (string, error) {
	if value == "" {
		return "", ErrInvalidCookie
	}
	var claims cookieClaims
	tkn, err := c.parser.ParseWithClaims(value, &claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil || !tkn.Valid || claims.SessionID == "" {
		return "", ErrInvalidCookie
	}
	return claims.SessionID, nil
}

// Cookie builds the HTTP-only, secure, same-site-strict cookie carrying token.
func (c *CookieCodec) Cookie(token string) (*http.Cookie, error) {
	value, err := c.Encode(token)
	if err != nil {
		return nil, err
	}
	cookie := &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
	if c.maxAge > 0 {
		cookie.MaxAge = int(c.maxAge / time.Second)
	}
	return cookie, nil
}

// Expired returns a cookie that makes the browser drop the session cookie.
func (c *CookieCodec) Expired() *http.Cookie {
	return &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Token extracts and verifies the session token from r's cookie.
func (c *CookieCodec) Token(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", ErrInvalidCookie
	}
	return c.Decode(cookie.Value)
}
