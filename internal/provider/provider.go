package provider

import (
	"context"
	"net/http"
)

// Provider mediates the handshake with one identity provider endpoint. The
// gate never interprets provider responses itself beyond the response nonce;
// everything else is the provider's business.
type Provider interface {
	ID() string
	Name() string

	// BeginLogin builds the redirect that sends the user to the provider.
	// state is echoed back by the provider on completion.
	BeginLogin(ctx context.Context, state string) (*LoginRedirect, error)

	// ResolveIdentity exchanges a provider response for a verified identity
	// using the shared secret and endpoint alias established by BeginLogin.
	ResolveIdentity(ctx context.Context, r *http.Request, secret []byte, alias string) (*Identity, error)
}

// LoginRedirect carries the provider redirect URL plus the handshake
// artifacts the completion step needs.
type LoginRedirect struct {
	URL    string
	Secret []byte
	Alias  string
}

// Identity is a verified assertion returned by a provider.
type Identity struct {
	Subject string         `json:"subject"`
	Email   string         `json:"email,omitempty"`
	Name    string         `json:"name,omitempty"`
	Claims  map[string]any `json:"claims,omitempty"`
}
