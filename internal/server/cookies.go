package server

import (
	"net/http"
	"time"

	"github.com/grantshandy/starify/internal/shared"
)

// StateCookieName holds the login state between /login and /callback.
const StateCookieName = "login_state"

// cookies builds the login state and session cookies with the configured domain and security flags.
type cookies struct {
	domain string
	secure bool
}

func newCookies(cfg shared.ServerConfig) cookies {
	return cookies{domain: cfg.CookieDomain, secure: cfg.SecureCookies}
}

// sameSite is None for the cross-site return from the provider. Browsers drop None cookies without Secure,
// so plain-http deployments fall back to Lax, which still sends the cookie on the top-level redirect.
func (c cookies) sameSite() http.SameSite {
	if c.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (c cookies) set(w http.ResponseWriter, name, value string, expires time.Time, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.domain,
		Expires:  expires,
		MaxAge:   int(ttl / time.Second),
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite(),
	})
}

// clear expires name immediately.
func (c cookies) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   c.secure,
		HttpOnly: true,
		SameSite: c.sameSite(),
	})
}
