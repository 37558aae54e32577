package sessions

import "errors"

var (
	// ErrNotFound is returned by repo lookups when no session matches.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidSession is returned by ValidateAndRefresh for a missing,
	// unknown or expired session id. Callers must not be able to tell which.
	ErrInvalidSession = errors.New("invalid session")
)

// Repo is the persistence boundary for session records. Every method is a
// single-record atomic operation; sessions are independent so no
// cross-record coordination is required.
type Repo interface {
	Insert(session *Session) error
	Get(sessionID string) (*Session, error)
	Update(session *Session) error
	Delete(sessionID string) error
}
