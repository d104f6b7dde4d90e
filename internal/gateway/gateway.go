package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xwhep/authgate/internal/nonce"
	"github.com/xwhep/authgate/internal/provider"
	"github.com/xwhep/authgate/internal/session"
	"github.com/xwhep/authgate/internal/token"
)

// NonceParam is the query parameter carrying the provider response nonce.
const NonceParam = "openid.response_nonce"

var (
	// ErrUnauthenticated means no presented credential verified. The request
	// proceeds without an identity; it is not a fatal condition.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionNotFound means a provider response arrived without a pending
	// handshake to complete.
	ErrSessionNotFound = errors.New("session not found")
)

// Gateway is the verification core invoked by the HTTP layer: bearer-token
// checks on inbound requests, and nonce-gated admission of identity-provider
// responses. It never writes HTTP responses itself; every outcome is a
// returned value.
type Gateway struct {
	verifier        *token.Verifier
	nonces          *nonce.Validator
	sessions        *session.Store
	providers       map[string]provider.Provider
	tokenCookieName string
	logger          *slog.Logger
}

func New(verifier *token.Verifier, nonces *nonce.Validator, sessions *session.Store, providers map[string]provider.Provider, tokenCookieName string, logger *slog.Logger) *Gateway {
	return &Gateway{
		verifier:        verifier,
		nonces:          nonces,
		sessions:        sessions,
		providers:       providers,
		tokenCookieName: tokenCookieName,
		logger:          logger,
	}
}

// VerifyRequestToken scans the request's cookies for bearer tokens and
// returns the claims of the first one that verifies. Failed candidates are
// logged and skipped; a request with no valid token is unauthenticated, not
// broken.
func (g *Gateway) VerifyRequestToken(ctx context.Context, cookies []*http.Cookie) (*token.Claims, error) {
	for _, cookie := range cookies {
		if cookie.Name != g.tokenCookieName {
			continue
		}

		claims, err := g.verifier.Verify(cookie.Value)
		if err != nil {
			g.logger.Debug("bearer token rejected", "error", err)
			continue
		}

		g.logger.Debug("bearer token verified",
			"token_id", claims.ID,
			"issuer", claims.Issuer,
			"subject", claims.Subject,
			"expires_at", claims.ExpiresAt,
		)
		return claims, nil
	}

	return nil, ErrUnauthenticated
}

// AdmitProviderResponse completes an identity-provider handshake: it loads
// the pending handshake, admits the one-time response nonce, then exchanges
// the handshake's shared secret and alias for a verified identity. The
// handshake is consumed on success.
func (g *Gateway) AdmitProviderResponse(ctx context.Context, r *http.Request, handshakeID string) (*provider.Identity, error) {
	hs, err := g.sessions.Load(ctx, handshakeID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("handshake store: %w", err)
	}

	if err := g.nonces.CheckAndAdmit(ctx, r.URL.Query().Get(NonceParam)); err != nil {
		return nil, err
	}

	p, ok := g.providers[hs.ProviderID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %s", ErrSessionNotFound, hs.ProviderID)
	}

	identity, err := p.ResolveIdentity(ctx, r, hs.Secret, hs.Alias)
	if err != nil {
		return nil, fmt.Errorf("identity resolution: %w", err)
	}

	if err := g.sessions.Delete(ctx, handshakeID); err != nil {
		g.logger.Warn("failed to delete consumed handshake", "handshake_id", handshakeID, "error", err)
	}

	return identity, nil
}

// VerifyProviderNonce re-validates a previously admitted nonce without
// consuming it.
func (g *Gateway) VerifyProviderNonce(ctx context.Context, nonceValue string) error {
	return g.nonces.VerifyOnly(ctx, nonceValue)
}
