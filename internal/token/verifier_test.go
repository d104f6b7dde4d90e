package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return raw
}

func newTestVerifier(secret []byte) *Verifier {
	return NewVerifier("xwhep", secret, clockwork.NewFakeClockAt(testNow))
}

func TestVerifyAcceptsValidToken(t *testing.T) {
	secret := []byte("Imesety")
	v := newTestVerifier(secret)

	raw := signToken(t, secret, jwt.MapClaims{
		"jti":  "token-1",
		"iss":  "xwhep",
		"sub":  "user@example.org",
		"iat":  testNow.Add(-time.Minute).Unix(),
		"exp":  testNow.Add(time.Minute).Unix(),
		"name": "Jo User",
	})

	claims, err := v.Verify(raw)
	require.NoError(t, err)

	assert.Equal(t, "token-1", claims.ID)
	assert.Equal(t, "xwhep", claims.Issuer)
	assert.Equal(t, "user@example.org", claims.Subject)
	assert.Equal(t, "Jo User", claims.Claim("name"))
	assert.Equal(t, testNow.Add(time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, testNow.Add(-time.Minute).Unix(), claims.IssuedAt.Unix())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := newTestVerifier([]byte("Imesety"))

	raw := signToken(t, []byte("not-the-secret"), jwt.MapClaims{
		"iss": "xwhep",
		"exp": testNow.Add(time.Minute).Unix(),
	})

	_, err := v.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	secret := []byte("Imesety")
	v := newTestVerifier(secret)

	raw := signToken(t, secret, jwt.MapClaims{
		"iss": "other",
		"exp": testNow.Add(time.Minute).Unix(),
	})

	_, err := v.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := []byte("Imesety")
	v := newTestVerifier(secret)

	raw := signToken(t, secret, jwt.MapClaims{
		"iss": "xwhep",
		"exp": testNow.Add(-time.Minute).Unix(),
	})

	_, err := v.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsMissingExpiry(t *testing.T) {
	secret := []byte("Imesety")
	v := newTestVerifier(secret)

	raw := signToken(t, secret, jwt.MapClaims{
		"iss": "xwhep",
	})

	_, err := v.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	v := newTestVerifier([]byte("Imesety"))

	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := v.Verify(raw)
		assert.ErrorIs(t, err, ErrTokenInvalid, "token %q", raw)
	}
}

func TestVerifyRejectsUnsignedAlgorithm(t *testing.T) {
	v := newTestVerifier([]byte("Imesety"))

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss": "xwhep",
		"exp": testNow.Add(time.Minute).Unix(),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
