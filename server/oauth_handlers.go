package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gatekit/gatekit/auth"
	"github.com/gatekit/gatekit/provider"
)

// OAuthRedirectHandler starts the third-party login round trip: generate
// a random state, pin it in a short-lived cookie, and send the browser to
// the provider's authorization URL carrying the same state.
func (s *Server) OAuthRedirectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.providers[r.PathValue("provider")]
		if !ok {
			http.NotFound(w, r)
			return
		}

		state := generateState()
		setStateCookie(w, p.Name(), state)
		http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
	}
}

// OAuthCallbackHandler finishes the round trip. It fails closed — a
// redirect to the landing page with no session cookie — on a state
// mismatch, a provider failure, or anything else going wrong in the
// exchange. No partial session is ever created, and no error detail
// leaks into the redirect URL.
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.providers[r.PathValue("provider")]
		if !ok {
			http.NotFound(w, r)
			return
		}

		sessionID, err := s.finishCallback(r, p)
		if err != nil {
			log.Warn().Err(err).Str("provider", p.Name()).Msg("OAuth callback rejected")
			expireStateCookie(w, p.Name())
			http.Redirect(w, r, s.config.GetAfterLoginURL(), http.StatusFound)
			return
		}

		expireStateCookie(w, p.Name())
		s.SetSessionCookie(w, sessionID)
		w.Header().Set("Cache-Control", "must-revalidate")
		http.Redirect(w, r, s.config.GetAfterLoginURL(), http.StatusFound)
	}
}

// finishCallback runs the CSRF guard and the identity exchange, returning
// the new session id. A missing or mismatched state is StateMismatchErr;
// any exchange or identity-fetch failure is UpstreamProviderErr.
func (s *Server) finishCallback(r *http.Request, p provider.Provider) (string, error) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	storedState := readStateCookie(r, p.Name())

	if code == "" || state == "" || storedState == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(storedState)) != 1 {
		return "", auth.StateMismatchErr
	}

	email, err := p.IdentityEmail(r.Context(), code)
	if err != nil {
		return "", errors.Wrap(auth.UpstreamProviderErr, err.Error())
	}

	sessionID, err := s.auth.FederatedSignIn(email)
	if err != nil {
		return "", errors.Wrap(err, "[Server.finishCallback] FederatedSignIn")
	}
	return sessionID, nil
}
