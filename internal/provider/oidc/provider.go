package oidc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/xwhep/authgate/internal/config"
	"github.com/xwhep/authgate/internal/provider"
	"golang.org/x/oauth2"
)

// Provider completes logins against an OpenID Connect endpoint. The
// handshake shared secret is the PKCE code verifier; the alias is the
// configured provider id.
type Provider struct {
	id   string
	name string
	cfg  config.OIDCConfig

	rp           *oidc.Provider
	oauth2Config oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

func New(ctx context.Context, providerCfg config.ProviderConfig, redirectURL string) (*Provider, error) {
	if providerCfg.OIDC == nil {
		return nil, fmt.Errorf("OIDC config is required")
	}

	rp, err := oidc.NewProvider(ctx, providerCfg.OIDC.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	oauth2Config := oauth2.Config{
		ClientID:     providerCfg.OIDC.ClientID,
		ClientSecret: providerCfg.OIDC.ClientSecret,
		Endpoint:     rp.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       providerCfg.OIDC.Scopes,
	}

	verifier := rp.Verifier(&oidc.Config{
		ClientID: providerCfg.OIDC.ClientID,
	})

	return &Provider{
		id:           providerCfg.ID,
		name:         providerCfg.Name,
		cfg:          *providerCfg.OIDC,
		rp:           rp,
		oauth2Config: oauth2Config,
		verifier:     verifier,
	}, nil
}

func (p *Provider) ID() string {
	return p.id
}

func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) BeginLogin(ctx context.Context, state string) (*provider.LoginRedirect, error) {
	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	authURL := p.oauth2Config.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", generateCodeChallenge(codeVerifier)),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)

	return &provider.LoginRedirect{
		URL:    authURL,
		Secret: []byte(codeVerifier),
		Alias:  p.id,
	}, nil
}

func (p *Provider) ResolveIdentity(ctx context.Context, r *http.Request, secret []byte, alias string) (*provider.Identity, error) {
	if alias != p.id {
		return nil, fmt.Errorf("provider mismatch: %s", alias)
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, fmt.Errorf("missing code parameter")
	}

	oauth2Token, err := p.oauth2Config.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", string(secret)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in token response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	identity := &provider.Identity{
		Subject: idToken.Subject,
		Claims:  claims,
	}
	identity.Email, _ = claims["email"].(string)
	identity.Name, _ = claims["name"].(string)

	return identity, nil
}

func generateCodeVerifier() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
