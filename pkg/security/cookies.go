package security

import (
	"net/http"
	"strings"
	"time"

	"github.com/xwhep/authgate/internal/config"
)

func CreateHandshakeCookie(cfg config.ServerConfig, handshakeID string, maxAge time.Duration) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	switch strings.ToLower(cfg.CookieSameSite) {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &http.Cookie{
		Name:     cfg.HandshakeCookie,
		Value:    handshakeID,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   cfg.CookieSecure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}

func ClearHandshakeCookie(cfg config.ServerConfig) *http.Cookie {
	cookie := CreateHandshakeCookie(cfg, "", 0)
	cookie.MaxAge = -1
	return cookie
}
