package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieCodec_RoundTrip(t *testing.T) {
	c := NewCookieCodec(CookieConfig{Secret: "secret", Secure: true})

	value, err := c.Encode("opaque-token")
	require.NoError(t, err)

	token, err := c.Decode(value)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
}

func TestCookieCodec_RejectsForeignSignatures(t *testing.T) {
	ours := NewCookieCodec(CookieConfig{Secret: "secret"})
	theirs := NewCookieCodec(CookieConfig{Secret: "other"})

	value, err := theirs.Encode("opaque-token")
	require.NoError(t, err)

	_, err = ours.Decode(value)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestCookieCodec_RejectsGarbageAndNone(t *testing.T) {
	c := NewCookieCodec(CookieConfig{Secret: "secret"})

	for _, v := range []string{"", "garbage", "a.b.c"} {
		_, err := c.Decode(v)
		assert.ErrorIs(t, err, ErrInvalidCookie, v)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sid": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = c.Decode(unsigned)
	assert.ErrorIs(t, err, ErrInvalidCookie)
}

func TestCookieCodec_CookieAttributes(t *testing.T) {
	c := NewCookieCodec(CookieConfig{Secret: "secret", Secure: true, MaxAge: time.Hour})

	cookie, err := c.Cookie("opaque-token")
	require.NoError(t, err)
	assert.Equal(t, DefaultCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 3600, cookie.MaxAge)

	header := cookie.String()
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "Secure")
	assert.Contains(t, header, "SameSite=Strict")

	expired := c.Expired()
	assert.Equal(t, -1, expired.MaxAge)
	assert.True(t, expired.HttpOnly)
}

func TestCookieCodec_TokenFromRequest(t *testing.T) {
	c := NewCookieCodec(CookieConfig{Name: "portal_sid", Secret: "secret"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := c.Token(req)
	assert.ErrorIs(t, err, ErrInvalidCookie)

	cookie, err := c.Cookie("opaque-token")
	require.NoError(t, err)
	req.AddCookie(cookie)

	token, err := c.Token(req)
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token)
	assert.False(t, strings.Contains(cookie.Value, "alice"))
}
