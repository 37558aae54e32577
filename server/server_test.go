package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/auth"
	"github.com/gatekit/gatekit/codes"
	codefakes "github.com/gatekit/gatekit/codes/repofakes"
	"github.com/gatekit/gatekit/internal/config"
	"github.com/gatekit/gatekit/server"
	"github.com/gatekit/gatekit/sessions"
	sessionfakes "github.com/gatekit/gatekit/sessions/repofakes"
	"github.com/gatekit/gatekit/token"
	userfakes "github.com/gatekit/gatekit/users/repofake"
)

const allowedOrigin = "http://localhost:3000"

type recordingSender struct {
	fail  bool
	codes []string
}

func (r *recordingSender) SendCode(_ context.Context, _, code string) error {
	if r.fail {
		return errors.New("smtp refused")
	}
	r.codes = append(r.codes, code)
	return nil
}

// fakeProvider stands in for GitHub in the round-trip tests.
type fakeProvider struct {
	email string
	err   error
}

func (fakeProvider) Name() string { return "github" }

func (fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + url.QueryEscape(state)
}

func (p fakeProvider) IdentityEmail(_ context.Context, code string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.email, nil
}

type gatewayFixture struct {
	userRepo     *userfakes.FakeUserRepo
	sessionRepo  *sessionfakes.FakeSessionRepo
	sessionStore *sessions.Store
	sender       *recordingSender
	keyPair      *token.KeyPair
	provider     *fakeProvider
	srv          *server.Server
}

func setupGateway(t *testing.T) *gatewayFixture {
	t.Helper()

	f := &gatewayFixture{
		userRepo:    userfakes.NewFakeUserRepo(),
		sessionRepo: sessionfakes.NewFakeSessionRepo(),
		sender:      &recordingSender{},
		provider:    &fakeProvider{email: "alice@example.com"},
	}

	var err error
	f.sessionStore, err = sessions.NewStore(f.sessionRepo)
	require.NoError(t, err)

	codeStore, err := codes.NewStore(codefakes.NewFakeCodeRepo())
	require.NoError(t, err)

	authService, err := auth.NewService(auth.Repos{
		Users:    f.userRepo,
		Sessions: f.sessionStore,
		Codes:    codeStore,
	}, f.sender)
	require.NoError(t, err)

	f.keyPair, err = token.GenerateRSAKeyPair("test-key", 2048)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(token.NewKeyPairSigner(f.keyPair), "https://auth.example.com", "api")
	require.NoError(t, err)

	f.srv, err = server.New(config.New(), authService, f.sessionStore, issuer, f.provider)
	require.NoError(t, err)

	return f
}

func (f *gatewayFixture) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == server.SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func credentials(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestSignUpSignInTokenScenario(t *testing.T) {
	f := setupGateway(t)

	// Sign up: 200 plus session cookie A.
	w := f.do(http.MethodPost, "/auth/signUp", credentials("alice@example.com", "pw123"))
	require.Equal(t, http.StatusOK, w.Code)
	cookieA := sessionCookie(t, w)
	require.True(t, cookieA.HttpOnly)
	require.True(t, cookieA.Secure)
	require.Equal(t, http.SameSiteNoneMode, cookieA.SameSite)
	require.Equal(t, "/", cookieA.Path)

	// Duplicate sign-up is rejected.
	w = f.do(http.MethodPost, "/auth/signUp", credentials("alice@example.com", "pw123"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "UserExists")

	// Wrong password.
	w = f.do(http.MethodPost, "/auth/signIn", credentials("alice@example.com", "nope"))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "CredentialMismatch")

	// Correct password: a fresh session per sign-in.
	w = f.do(http.MethodPost, "/auth/signIn", credentials("alice@example.com", "pw123"))
	require.Equal(t, http.StatusOK, w.Code)
	cookieB := sessionCookie(t, w)
	require.NotEqual(t, cookieA.Value, cookieB.Value)

	// Token route: signed JWT bound to alice, session cookie refreshed.
	w = f.do(http.MethodGet, "/auth/token", nil, cookieB)
	require.Equal(t, http.StatusOK, w.Code)

	alice, err := f.userRepo.GetByEmail("alice@example.com")
	require.NoError(t, err)

	claims := jwtlib.MapClaims{}
	_, err = jwtlib.ParseWithClaims(w.Body.String(), claims, func(*jwtlib.Token) (any, error) {
		return f.keyPair.PublicKey, nil
	}, jwtlib.WithValidMethods([]string{token.RS256}))
	require.NoError(t, err)
	require.Equal(t, alice.ID, claims["sub"])
	require.Equal(t, "https://auth.example.com", claims["iss"])

	refreshed := sessionCookie(t, w)
	require.Equal(t, cookieB.Value, refreshed.Value)
}

func TestTokenRequiresValidSession(t *testing.T) {
	f := setupGateway(t)

	w := f.do(http.MethodGet, "/auth/token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "InvalidSession")

	w = f.do(http.MethodGet, "/auth/token", nil, &http.Cookie{Name: server.SessionCookieName, Value: "garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignOutDeletesSession(t *testing.T) {
	f := setupGateway(t)

	w := f.do(http.MethodPost, "/auth/signUp", credentials("alice@example.com", "pw123"))
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	w = f.do(http.MethodPost, "/auth/signOut", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	// Cookie is expired to the epoch in the browser.
	expired := sessionCookie(t, w)
	require.True(t, expired.Expires.Unix() <= 0)

	// The record is gone and the old cookie no longer works.
	session, err := f.sessionStore.Get(cookie.Value)
	require.NoError(t, err)
	require.Nil(t, session)

	w = f.do(http.MethodGet, "/auth/token", nil, cookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmailCodeRoutes(t *testing.T) {
	f := setupGateway(t)

	w := f.do(http.MethodPost, "/auth/requestCode", url.Values{"email": {"bob@example.com"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.sender.codes, 1)

	w = f.do(http.MethodPost, "/auth/verifyCode", url.Values{"code": {f.sender.codes[0]}})
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	bob, err := f.userRepo.GetByEmail("bob@example.com")
	require.NoError(t, err)
	session, err := f.sessionStore.Get(cookie.Value)
	require.NoError(t, err)
	require.Equal(t, bob.ID, session.UserID)

	// Codes are single use.
	w = f.do(http.MethodPost, "/auth/verifyCode", url.Values{"code": {f.sender.codes[0]}})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "InvalidCode")
}

func TestRequestCodeDeliveryFailureReason(t *testing.T) {
	f := setupGateway(t)
	f.sender.fail = true

	// A dead mail backend must surface as the stable reason, not a 500.
	w := f.do(http.MethodPost, "/auth/requestCode", url.Values{"email": {"bob@example.com"}})
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "DeliveryFailed")
}

func TestOAuthRedirect(t *testing.T) {
	f := setupGateway(t)

	w := f.do(http.MethodGet, "/auth/github", nil)
	require.Equal(t, http.StatusFound, w.Code)

	location, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	// The same state is pinned in the short-lived cookie.
	var stateCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == "githubOAuthState" {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	require.Equal(t, state, stateCookie.Value)
	require.True(t, stateCookie.HttpOnly)
	require.Equal(t, 600, stateCookie.MaxAge)

	w = f.do(http.MethodGet, "/auth/unknown", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestOAuthCallbackSuccess(t *testing.T) {
	f := setupGateway(t)

	w := f.do(http.MethodGet, "/auth/github/callback?code=abc&state=xyz", nil,
		&http.Cookie{Name: "githubOAuthState", Value: "xyz"})
	require.Equal(t, http.StatusFound, w.Code)
	require.Contains(t, w.Header().Get("Location"), "/authenticated")

	cookie := sessionCookie(t, w)
	session, err := f.sessionStore.Get(cookie.Value)
	require.NoError(t, err)

	alice, err := f.userRepo.GetByEmail("alice@example.com")
	require.NoError(t, err)
	require.Equal(t, alice.ID, session.UserID)
}

func TestOAuthCallbackFailsClosed(t *testing.T) {
	f := setupGateway(t)

	cases := []struct {
		name   string
		target string
		cookie *http.Cookie
	}{
		{"state mismatch", "/auth/github/callback?code=abc&state=evil", &http.Cookie{Name: "githubOAuthState", Value: "xyz"}},
		{"missing code", "/auth/github/callback?state=xyz", &http.Cookie{Name: "githubOAuthState", Value: "xyz"}},
		{"missing state", "/auth/github/callback?code=abc", &http.Cookie{Name: "githubOAuthState", Value: "xyz"}},
		{"missing cookie", "/auth/github/callback?code=abc&state=xyz", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tc.cookie != nil {
				w = f.do(http.MethodGet, tc.target, nil, tc.cookie)
			} else {
				w = f.do(http.MethodGet, tc.target, nil)
			}

			// Generic redirect, no session cookie, no session created.
			require.Equal(t, http.StatusFound, w.Code)
			require.Contains(t, w.Header().Get("Location"), "/authenticated")
			for _, c := range w.Result().Cookies() {
				require.NotEqual(t, server.SessionCookieName, c.Name)
			}
			require.Equal(t, 0, f.sessionRepo.Count())
		})
	}
}

func TestOAuthCallbackUpstreamFailure(t *testing.T) {
	f := setupGateway(t)
	f.provider.err = errors.New("exchange refused")

	w := f.do(http.MethodGet, "/auth/github/callback?code=abc&state=xyz", nil,
		&http.Cookie{Name: "githubOAuthState", Value: "xyz"})

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, 0, f.sessionRepo.Count())
	for _, c := range w.Result().Cookies() {
		require.NotEqual(t, server.SessionCookieName, c.Name)
	}
}

func TestCorsHeaders(t *testing.T) {
	f := setupGateway(t)

	// Preflight for a cookie-bearing POST route.
	req := httptest.NewRequest(http.MethodOptions, "/auth/signIn", nil)
	req.Header.Set("Origin", allowedOrigin)
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	require.Equal(t, http.MethodPost, w.Header().Get("Access-Control-Allow-Methods"))

	// Unknown origins get no CORS headers at all.
	req = httptest.NewRequest(http.MethodOptions, "/auth/signIn", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))

	// Discovery routes are not credentialed.
	req = httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil)
	req.Header.Set("Origin", allowedOrigin)
	w = httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	require.Equal(t, allowedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestDiscoveryDocuments(t *testing.T) {
	f := setupGateway(t)

	w := f.do(http.MethodGet, "/.well-known/openid-configuration", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"issuer"`)
	require.Contains(t, w.Body.String(), "/.well-known/jwks.json")

	w = f.do(http.MethodGet, "/.well-known/jwks.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"keys"`)
	require.Contains(t, w.Body.String(), `"RSA"`)
}

func TestAnonymousTokenVariant(t *testing.T) {
	t.Setenv("ALLOW_ANONYMOUS_SESSIONS", "true")
	f := setupGateway(t)

	// No cookie at all: the gateway bootstraps an anonymous session
	// instead of failing.
	w := f.do(http.MethodGet, "/auth/token", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(t, w)

	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(w.Body.String(), claims, func(*jwtlib.Token) (any, error) {
		return f.keyPair.PublicKey, nil
	}, jwtlib.WithValidMethods([]string{token.RS256}))
	require.NoError(t, err)
	require.Equal(t, cookie.Value, claims["sub"])

	// Presenting the cookie again refreshes the same session.
	w = f.do(http.MethodGet, "/auth/token", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, cookie.Value, sessionCookie(t, w).Value)
}
