package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gatekit/gatekit/auth"
)

type stubProvider struct {
	err error
}

func (stubProvider) Name() string { return "github" }

func (stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p stubProvider) IdentityEmail(context.Context, string) (string, error) {
	return "", p.err
}

func callbackRequest(target, storedState string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, target, nil)
	if storedState != "" {
		r.AddCookie(&http.Cookie{Name: "githubOAuthState", Value: storedState})
	}
	return r
}

func TestFinishCallbackStateMismatch(t *testing.T) {
	s := &Server{}

	cases := []struct {
		name   string
		target string
		stored string
	}{
		{"forged state", "/auth/github/callback?code=abc&state=evil", "good"},
		{"missing code", "/auth/github/callback?state=good", "good"},
		{"missing state", "/auth/github/callback?code=abc", "good"},
		{"no cookie", "/auth/github/callback?code=abc&state=good", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.finishCallback(callbackRequest(tc.target, tc.stored), stubProvider{})
			require.ErrorIs(t, err, auth.StateMismatchErr)
		})
	}
}

func TestFinishCallbackUpstreamFailure(t *testing.T) {
	s := &Server{}
	p := stubProvider{err: errors.New("exchange refused")}

	_, err := s.finishCallback(callbackRequest("/auth/github/callback?code=abc&state=good", "good"), p)
	require.ErrorIs(t, err, auth.UpstreamProviderErr)
}
