package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the identity anchor for every credential flow. A user created
// through the email-code or federated flows has no password hash; password
// sign-in against such a user must still run a hash comparison so that the
// failure is indistinguishable from a wrong password.
type User struct {
	ID           string    `json:"id,omitempty"`    // Unique identifier for the user
	Email        string    `json:"email,omitempty"` // User's email address (unique, stored as given)
	PasswordHash string    `json:"-"`               // Hashed password - never serialize, empty for passwordless users
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// HasPassword reports whether the user can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
