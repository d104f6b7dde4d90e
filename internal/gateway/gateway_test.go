package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xwhep/authgate/internal/nonce"
	"github.com/xwhep/authgate/internal/provider"
	"github.com/xwhep/authgate/internal/session"
	"github.com/xwhep/authgate/internal/store"
	"github.com/xwhep/authgate/internal/token"
)

var testNow = time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)

const (
	testIssuer = "xwhep"
	testSecret = "Imesety"
)

// stubProvider resolves every well-formed response to a fixed identity.
type stubProvider struct {
	id         string
	identity   *provider.Identity
	err        error
	gotSecret  []byte
	gotAlias   string
	resolveCnt int
}

func (s *stubProvider) ID() string   { return s.id }
func (s *stubProvider) Name() string { return s.id }

func (s *stubProvider) BeginLogin(ctx context.Context, state string) (*provider.LoginRedirect, error) {
	return &provider.LoginRedirect{
		URL:    "https://idp.example.org/login?state=" + state,
		Secret: []byte("shared-secret"),
		Alias:  s.id,
	}, nil
}

func (s *stubProvider) ResolveIdentity(ctx context.Context, r *http.Request, secret []byte, alias string) (*provider.Identity, error) {
	s.resolveCnt++
	s.gotSecret = secret
	s.gotAlias = alias
	if s.err != nil {
		return nil, s.err
	}
	return s.identity, nil
}

type testRig struct {
	gw       *Gateway
	sessions *session.Store
	provider *stubProvider
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	backend := store.NewMemoryStore()
	t.Cleanup(func() { backend.Close() })

	clock := clockwork.NewFakeClockAt(testNow)

	verifier := token.NewVerifier(testIssuer, []byte(testSecret), clock)
	nonces := nonce.NewValidator(nonce.NewStore(backend, clock), clock, 300*time.Second)
	sessions := session.NewStore(backend, 10*time.Minute)

	stub := &stubProvider{
		id:       "acme",
		identity: &provider.Identity{Subject: "user-1", Email: "user@example.org"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gw := New(verifier, nonces, sessions, map[string]provider.Provider{"acme": stub}, "token", logger)

	return &testRig{gw: gw, sessions: sessions, provider: stub}
}

func signTestToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestVerifyRequestTokenNoCookies(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.gw.VerifyRequestToken(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = rig.gw.VerifyRequestToken(context.Background(), []*http.Cookie{
		{Name: "other", Value: "whatever"},
	})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyRequestTokenValidCookie(t *testing.T) {
	rig := newTestRig(t)

	raw := signTestToken(t, testSecret, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user-1",
		"exp": testNow.Add(time.Minute).Unix(),
	})

	claims, err := rig.gw.VerifyRequestToken(context.Background(), []*http.Cookie{
		{Name: "token", Value: raw},
	})
	require.NoError(t, err)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestVerifyRequestTokenExpiredCookie(t *testing.T) {
	rig := newTestRig(t)

	raw := signTestToken(t, testSecret, jwt.MapClaims{
		"iss": testIssuer,
		"exp": testNow.Add(-time.Minute).Unix(),
	})

	_, err := rig.gw.VerifyRequestToken(context.Background(), []*http.Cookie{
		{Name: "token", Value: raw},
	})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerifyRequestTokenSkipsBadCandidates(t *testing.T) {
	rig := newTestRig(t)

	bad := signTestToken(t, "wrong-secret", jwt.MapClaims{
		"iss": testIssuer,
		"exp": testNow.Add(time.Minute).Unix(),
	})
	good := signTestToken(t, testSecret, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user-2",
		"exp": testNow.Add(time.Minute).Unix(),
	})

	// A rejected candidate must not abort the scan; the first verifying
	// cookie wins.
	claims, err := rig.gw.VerifyRequestToken(context.Background(), []*http.Cookie{
		{Name: "token", Value: "garbage"},
		{Name: "token", Value: bad},
		{Name: "token", Value: good},
	})
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims.Subject)
}

func providerResponse(t *testing.T, nonceValue string) *http.Request {
	t.Helper()

	q := url.Values{}
	q.Set(NonceParam, nonceValue)
	q.Set("code", "authcode")
	return httptest.NewRequest(http.MethodGet, "/jwt?"+q.Encode(), nil)
}

func TestAdmitProviderResponseSuccess(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	hs := &session.Handshake{
		ID:         "hs-1",
		ProviderID: "acme",
		Secret:     []byte("shared-secret"),
		Alias:      "acme",
		CreatedAt:  testNow,
	}
	require.NoError(t, rig.sessions.Save(ctx, hs))

	r := providerResponse(t, "2024-01-01T00:00:00Z-abcdef")

	identity, err := rig.gw.AdmitProviderResponse(ctx, r, "hs-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.Subject)
	assert.Equal(t, []byte("shared-secret"), rig.provider.gotSecret)
	assert.Equal(t, "acme", rig.provider.gotAlias)

	// The handshake is consumed.
	_, err = rig.sessions.Load(ctx, "hs-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAdmitProviderResponseWithoutHandshake(t *testing.T) {
	rig := newTestRig(t)

	r := providerResponse(t, "2024-01-01T00:00:00Z-abcdef")

	_, err := rig.gw.AdmitProviderResponse(context.Background(), r, "no-such-handshake")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Zero(t, rig.provider.resolveCnt)
}

func TestAdmitProviderResponseReplayedNonce(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	for _, id := range []string{"hs-1", "hs-2"} {
		require.NoError(t, rig.sessions.Save(ctx, &session.Handshake{
			ID:         id,
			ProviderID: "acme",
			Secret:     []byte("shared-secret"),
			Alias:      "acme",
			CreatedAt:  testNow,
		}))
	}

	r := providerResponse(t, "2024-01-01T00:00:00Z-abcdef")

	_, err := rig.gw.AdmitProviderResponse(ctx, r, "hs-1")
	require.NoError(t, err)

	_, err = rig.gw.AdmitProviderResponse(ctx, r, "hs-2")
	assert.ErrorIs(t, err, nonce.ErrUnknownNonce)
	assert.Equal(t, 1, rig.provider.resolveCnt, "identity must not be resolved on a replay")
}

func TestAdmitProviderResponseBadNonce(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.sessions.Save(ctx, &session.Handshake{
		ID:         "hs-1",
		ProviderID: "acme",
		Secret:     []byte("shared-secret"),
		Alias:      "acme",
		CreatedAt:  testNow,
	}))

	_, err := rig.gw.AdmitProviderResponse(ctx, providerResponse(t, "short"), "hs-1")
	assert.ErrorIs(t, err, nonce.ErrInvalidNonce)

	_, err = rig.gw.AdmitProviderResponse(ctx, providerResponse(t, "2023-01-01T00:00:00Z-abcdef"), "hs-1")
	assert.ErrorIs(t, err, nonce.ErrBadNonceTime)

	// The handshake survives failed admissions.
	_, err = rig.sessions.Load(ctx, "hs-1")
	assert.NoError(t, err)
}

func TestAdmitProviderResponseResolutionFailure(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	rig.provider.err = errors.New("idp unreachable")

	require.NoError(t, rig.sessions.Save(ctx, &session.Handshake{
		ID:         "hs-1",
		ProviderID: "acme",
		Secret:     []byte("shared-secret"),
		Alias:      "acme",
		CreatedAt:  testNow,
	}))

	_, err := rig.gw.AdmitProviderResponse(ctx, providerResponse(t, "2024-01-01T00:00:00Z-abcdef"), "hs-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestVerifyProviderNonce(t *testing.T) {
	rig := newTestRig(t)
	ctx := context.Background()

	require.NoError(t, rig.sessions.Save(ctx, &session.Handshake{
		ID:         "hs-1",
		ProviderID: "acme",
		Secret:     []byte("shared-secret"),
		Alias:      "acme",
		CreatedAt:  testNow,
	}))

	nonceValue := "2024-01-01T00:00:00Z-abcdef"

	err := rig.gw.VerifyProviderNonce(ctx, nonceValue)
	assert.ErrorIs(t, err, nonce.ErrUnknownNonce)

	_, err = rig.gw.AdmitProviderResponse(ctx, providerResponse(t, nonceValue), "hs-1")
	require.NoError(t, err)

	assert.NoError(t, rig.gw.VerifyProviderNonce(ctx, nonceValue))
	assert.NoError(t, rig.gw.VerifyProviderNonce(ctx, nonceValue))
}
