package codes

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
)

// CodeTTL is how long an emailed verification code stays valid.
const CodeTTL = 10 * time.Minute

const codeDigits = 8

var (
	// ErrInvalidCode is returned when no live code row matches.
	ErrInvalidCode = errors.New("invalid verification code")

	// ErrExpiredCode is returned when the matching code had already
	// expired. The row is consumed regardless, so a retry with the same
	// code yields ErrInvalidCode.
	ErrExpiredCode = errors.New("expired verification code")
)

// VerificationCode is one outstanding one-time login code. At most one
// live code exists per user; issuing a new one deletes the prior row.
type VerificationCode struct {
	UserID    string
	Code      string
	ExpiresAt time.Time
}

// Repo is the persistence boundary for verification codes. Codes are
// resolvable by their code string, which the store keeps unique across
// live rows.
type Repo interface {
	Upsert(code *VerificationCode) error
	GetByCode(code string) (*VerificationCode, error)
	DeleteByCode(code string) error
	DeleteForUser(userID string) error
}

// Store issues and consumes single-use verification codes over a Repo.
type Store struct {
	repo    Repo
	ttl     time.Duration
	nowTime func() time.Time // nowTime function (injectable for testing)
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowTime = nowFunc
	}
}

func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] codes repo is required")
	}

	store := &Store{
		repo:    repo,
		ttl:     CodeTTL,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(store)
	}

	return store, nil
}

// Issue rotates the user's code: any prior live code is deleted, then a
// fresh 8-digit code is stored with the code TTL and returned.
func (s *Store) Issue(userID string) (string, error) {
	if err := s.repo.DeleteForUser(userID); err != nil {
		return "", errors.Wrap(err, "[Store.Issue] repo.DeleteForUser")
	}

	code, err := s.generateUnique()
	if err != nil {
		return "", errors.Wrap(err, "[Store.Issue] generateUnique")
	}

	if err := s.repo.Upsert(&VerificationCode{
		UserID:    userID,
		Code:      code,
		ExpiresAt: s.nowTime().Add(s.ttl),
	}); err != nil {
		return "", errors.Wrap(err, "[Store.Issue] repo.Upsert")
	}
	return code, nil
}

// Consume looks up the code and deletes it unconditionally: a code is
// single-use even when the attempt fails. Returns the owning user id on
// success, ErrInvalidCode when no row matches, ErrExpiredCode when the
// consumed row had already expired.
func (s *Store) Consume(code string) (string, error) {
	row, err := s.repo.GetByCode(code)
	if errors.Is(err, ErrInvalidCode) {
		return "", ErrInvalidCode
	}
	if err != nil {
		return "", errors.Wrap(err, "[Store.Consume] repo.GetByCode")
	}

	if err := s.repo.DeleteByCode(code); err != nil {
		return "", errors.Wrap(err, "[Store.Consume] repo.DeleteByCode")
	}

	if row.ExpiresAt.Before(s.nowTime()) {
		return "", ErrExpiredCode
	}
	return row.UserID, nil
}

// generateUnique draws 8-digit numeric codes from crypto/rand until one
// does not collide with a live row.
func (s *Store) generateUnique() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	for {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "rand.Int")
		}
		code := fmt.Sprintf("%0*d", codeDigits, n)

		if _, err := s.repo.GetByCode(code); errors.Is(err, ErrInvalidCode) {
			return code, nil
		} else if err != nil {
			return "", errors.Wrap(err, "repo.GetByCode")
		}
	}
}
