package server

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/gatekit/gatekit/auth"
)

// flowReasons maps flow failures to the short machine-stable reason the
// client UI matches on. Anything outside the taxonomy is an opaque 500.
var flowReasons = []struct {
	err    error
	status int
	reason string
}{
	{auth.UserExistsErr, http.StatusUnauthorized, "UserExists"},
	{auth.CredentialMismatchErr, http.StatusUnauthorized, "CredentialMismatch"},
	{auth.InvalidCodeErr, http.StatusUnauthorized, "InvalidCode"},
	{auth.ExpiredCodeErr, http.StatusUnauthorized, "ExpiredCode"},
	{auth.InvalidSessionErr, http.StatusUnauthorized, "InvalidSession"},
	{auth.DeliveryFailedErr, http.StatusBadGateway, "DeliveryFailed"},
}

// writeFlowError translates a flow failure into an HTTP status plus a
// reason string — never a stack trace or internal detail.
func writeFlowError(w http.ResponseWriter, err error) {
	for _, m := range flowReasons {
		if errors.Is(err, m.err) {
			http.Error(w, m.reason, m.status)
			return
		}
	}
	log.Err(err).Msg("unexpected flow error")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// TokenHandler exchanges a valid session cookie for a signed bearer token
// and refreshes the cookie. The strict variant hard-fails with 401 on an
// invalid session; the anonymous variant silently re-issues instead.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := s.readSessionCookie(r)

		var subject string
		if s.anonymous {
			refreshed, err := s.auth.Bootstrap(sessionID)
			if err != nil {
				writeFlowError(w, err)
				return
			}
			sessionID = refreshed

			session, err := s.sessions.Get(sessionID)
			if err != nil || session == nil {
				writeFlowError(w, errors.New("bootstrap session vanished"))
				return
			}
			// Anonymous sessions have no user; the token subject is the
			// session itself.
			subject = session.UserID
			if subject == "" {
				subject = session.ID
			}
		} else {
			userID, err := s.sessions.ValidateAndRefresh(sessionID)
			if err != nil {
				writeFlowError(w, err)
				return
			}
			subject = userID
		}

		signed, err := s.issuer.Issue(subject)
		if err != nil {
			writeFlowError(w, err)
			return
		}

		s.SetSessionCookie(w, sessionID)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(signed))
	}
}

func (s *Server) SignUpHandler() http.HandlerFunc {
	return s.credentialHandler(auth.KindPasswordSignUp)
}

func (s *Server) SignInHandler() http.HandlerFunc {
	return s.credentialHandler(auth.KindPasswordSignIn)
}

func (s *Server) VerifyCodeHandler() http.HandlerFunc {
	return s.credentialHandler(auth.KindCodeVerify)
}

// credentialHandler runs one credential flow from form input and sets the
// session cookie on success. The flows share a shape: only the request
// kind differs.
func (s *Server) credentialHandler(kind auth.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		sessionID, err := s.auth.Authenticate(r.Context(), auth.Request{
			Kind:     kind,
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
			Code:     r.PostFormValue("code"),
		})
		if err != nil {
			writeFlowError(w, err)
			return
		}

		s.SetSessionCookie(w, sessionID)
		w.WriteHeader(http.StatusOK)
	}
}

// RequestCodeHandler queues a one-time code email. No cookie is set; the
// session is granted by the verify step.
func (s *Server) RequestCodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		if _, err := s.auth.Authenticate(r.Context(), auth.Request{
			Kind:  auth.KindCodeRequest,
			Email: r.PostFormValue("email"),
		}); err != nil {
			writeFlowError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// SignOutHandler deletes the session and expires the cookie in the
// browser.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.SignOut(s.readSessionCookie(r)); err != nil {
			writeFlowError(w, err)
			return
		}

		s.ExpireSessionCookie(w)
		w.WriteHeader(http.StatusOK)
	}
}
