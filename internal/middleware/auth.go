package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/xwhep/authgate/internal/gateway"
	"github.com/xwhep/authgate/internal/token"
)

type contextKey string

const ClaimsContextKey contextKey = "claims"

// unauthorizedBody deliberately says nothing about which check failed.
const unauthorizedBody = "Unauthorized. Please contact the administrator of this server."

type AuthMiddleware struct {
	gw     *gateway.Gateway
	logger *slog.Logger
}

func NewAuthMiddleware(gw *gateway.Gateway, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		gw:     gw,
		logger: logger,
	}
}

// RequireToken admits only requests presenting a verifiable bearer token
// cookie and makes its claims available downstream. Rejections carry a
// generic body; the reason stays in the logs.
func (am *AuthMiddleware) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := am.gw.VerifyRequestToken(r.Context(), r.Cookies())
		if err != nil {
			am.logger.Info("request unauthenticated",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"error", err,
			)
			http.Error(w, unauthorizedBody, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetClaims(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*token.Claims)
	return claims, ok
}
