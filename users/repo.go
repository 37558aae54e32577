package users

import "errors"

// ErrNotFound is returned by repo lookups when no user matches.
var ErrNotFound = errors.New("user not found")

// Repo is the persistence boundary for users. Implementations must treat
// Insert as a single atomic record write; email uniqueness is enforced by
// the caller via GetByEmail before Insert (the store guarantees
// read-your-writes between the two calls).
type Repo interface {
	Insert(user *User) error
	GetByEmail(email string) (*User, error)
	GetByID(id string) (*User, error)
}
