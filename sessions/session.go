package sessions

import "time"

// Session binds an opaque id to an optional user and an absolute expiration
// time. Reading a session never implies validity; expiry is a predicate the
// caller applies. Expired rows are left in place for eventual cleanup and
// are indistinguishable from missing rows to every public operation.
type Session struct {
	ID        string    // Unique session identifier (UUID)
	UserID    string    // Owning user id, empty for anonymous sessions
	ExpiresAt time.Time // Absolute expiration timestamp
}

// Expired reports whether the session is past its expiration at the given
// instant.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
