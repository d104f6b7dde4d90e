package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// ErrTokenInvalid covers every way a bearer token can fail verification:
// malformed structure, signature mismatch, wrong issuer, elapsed expiry.
// Clients only ever see "unauthorized"; the wrapped detail is for logs.
var ErrTokenInvalid = errors.New("invalid token")

// Claims is the decoded payload of a verified bearer token.
type Claims struct {
	ID        string
	Issuer    string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	NotBefore time.Time
	// Custom holds every claim, including the registered ones above.
	Custom map[string]any
}

// Claim returns the named custom claim, or nil if absent.
func (c *Claims) Claim(name string) any {
	return c.Custom[name]
}

// Verifier validates compact HMAC-SHA-256 signed tokens minted by the token
// authority. It is pure: the only state is configuration and the injected
// clock.
type Verifier struct {
	issuer string
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(issuer string, secret []byte, clock clockwork.Clock) *Verifier {
	return &Verifier{
		issuer: issuer,
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(issuer),
			jwt.WithTimeFunc(clock.Now),
		),
	}
}

// Verify checks signature, issuer and time claims of raw and returns the
// decoded claim set.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	parsed, err := v.parser.Parse(raw, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}

	claims := &Claims{Custom: map[string]any(mapClaims)}
	claims.ID, _ = mapClaims["jti"].(string)
	claims.Issuer, _ = mapClaims.GetIssuer()
	claims.Subject, _ = mapClaims.GetSubject()

	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if nbf, err := mapClaims.GetNotBefore(); err == nil && nbf != nil {
		claims.NotBefore = nbf.Time
	}

	return claims, nil
}
