package auth

import (
	"net/http"
)

// Cookie names for the two session tokens. One canonical scheme — the
// middleware, the login handler, and the refresh handler all go through
// these helpers so the names can never drift apart.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookieWriter sets and clears the session cookie pair.
//
// HttpOnly keeps the tokens out of reach of page JavaScript (XSS
// protection). Secure is tied to the production flag: local development
// runs over plain HTTP, production must not send tokens in the clear.
type CookieWriter struct {
	secure bool
}

// NewCookieWriter creates a CookieWriter. secure should be true whenever
// the API is served over HTTPS (i.e. in production).
func NewCookieWriter(secure bool) *CookieWriter {
	return &CookieWriter{secure: secure}
}

// SetPair stores an access/refresh token pair as HttpOnly cookies with
// lifetimes matching the tokens' own expiries.
func (c *CookieWriter) SetPair(w http.ResponseWriter, pair TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(AccessTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear deletes both session cookies. Clearing cookies that were never
// set is harmless, which is what makes logout idempotent.
func (c *CookieWriter) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1, // tells the browser to delete the cookie immediately
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
