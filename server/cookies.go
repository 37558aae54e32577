package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"
)

const oauthStateTTL = 10 * time.Minute

// SetSessionCookie issues or refreshes the session cookie. The cookie
// must survive cross-site embedding of the app (SameSite=None) which in
// turn requires Secure; Partitioned keeps it working where third-party
// cookie partitioning is enforced.
func (s *Server) SetSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:        SessionCookieName,
		Value:       sessionID,
		Path:        "/",
		HttpOnly:    true,
		Secure:      true,
		SameSite:    http.SameSiteNoneMode,
		Partitioned: true,
		Expires:     time.Now().Add(s.sessions.TTL()),
	})
}

// ExpireSessionCookie sets the cookie expiry to the epoch so the browser
// deletes it immediately.
func (s *Server) ExpireSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:        SessionCookieName,
		Value:       "",
		Path:        "/",
		HttpOnly:    true,
		Secure:      true,
		SameSite:    http.SameSiteNoneMode,
		Partitioned: true,
		Expires:     time.Unix(0, 0),
	})
}

func (s *Server) readSessionCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func stateCookieName(providerName string) string {
	return providerName + oauthStateCookieSuffix
}

// setStateCookie stores the OAuth CSRF state for the redirect round trip.
func setStateCookie(w http.ResponseWriter, providerName, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:        stateCookieName(providerName),
		Value:       state,
		Path:        "/",
		HttpOnly:    true,
		Secure:      true,
		SameSite:    http.SameSiteNoneMode,
		Partitioned: true,
		MaxAge:      int(oauthStateTTL.Seconds()),
	})
}

// expireStateCookie drops the state cookie once the round trip finished,
// whichever way it went.
func expireStateCookie(w http.ResponseWriter, providerName string) {
	http.SetCookie(w, &http.Cookie{
		Name:        stateCookieName(providerName),
		Value:       "",
		Path:        "/",
		HttpOnly:    true,
		Secure:      true,
		SameSite:    http.SameSiteNoneMode,
		Partitioned: true,
		Expires:     time.Unix(0, 0),
	})
}

func readStateCookie(r *http.Request, providerName string) string {
	cookie, err := r.Cookie(stateCookieName(providerName))
	if err != nil {
		return ""
	}
	return cookie.Value
}

// generateState creates a random opaque state string for the OAuth round
// trip.
func generateState() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
