package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SessionTTL is how long a session lives from creation or last refresh.
const SessionTTL = 30 * 24 * time.Hour

// Store implements the session lifecycle over a Repo. It owns the TTL
// policy; the repo only persists records.
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

// WithTTL overrides the default session TTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func NewStore(repo Repo, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] session repo is required")
	}

	store := &Store{
		repo:    repo,
		ttl:     SessionTTL,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(store)
	}

	return store, nil
}

// Create inserts a new session expiring ttl from now. userID may be empty
// for anonymous sessions.
func (s *Store) Create(userID string) (string, error) {
	session := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: s.nowTime().Add(s.ttl),
	}
	if err := s.repo.Insert(session); err != nil {
		return "", errors.Wrap(err, "[Store.Create] repo.Insert")
	}
	return session.ID, nil
}

// Get returns the session record, or nil for a malformed or unknown id.
// Malformed and unknown are deliberately indistinguishable so that the id
// space cannot be probed. Expired sessions are still returned; callers
// apply the validity predicate themselves.
func (s *Store) Get(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, nil
	}
	session, err := s.repo.Get(sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Get] repo.Get")
	}
	return session, nil
}

// Touch refreshes an existing unexpired session in place, or silently
// issues a brand-new anonymous session when the id is missing, unknown or
// expired. The caller always receives a usable session id so that a stale
// cookie degrades to a fresh anonymous session instead of failing the
// request pipeline.
func (s *Store) Touch(sessionID string) (string, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return "", errors.Wrap(err, "[Store.Touch] Get")
	}
	if session == nil || session.Expired(s.nowTime()) {
		return s.Create("")
	}

	session.ExpiresAt = s.nowTime().Add(s.ttl)
	if err := s.repo.Update(session); err != nil {
		return "", errors.Wrap(err, "[Store.Touch] repo.Update")
	}
	return session.ID, nil
}

// ValidateAndRefresh is the strict variant used when every session must be
// tied to a real user. It fails with ErrInvalidSession when the id is
// missing, unknown or expired; otherwise it extends the TTL and returns
// the bound user id.
func (s *Store) ValidateAndRefresh(sessionID string) (string, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return "", errors.Wrap(err, "[Store.ValidateAndRefresh] Get")
	}
	if session == nil || session.Expired(s.nowTime()) {
		return "", ErrInvalidSession
	}

	session.ExpiresAt = s.nowTime().Add(s.ttl)
	if err := s.repo.Update(session); err != nil {
		return "", errors.Wrap(err, "[Store.ValidateAndRefresh] repo.Update")
	}
	return session.UserID, nil
}

// Delete removes the session if present. Deleting an unknown id is a no-op.
func (s *Store) Delete(sessionID string) error {
	err := s.repo.Delete(sessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "[Store.Delete] repo.Delete")
	}
	return nil
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}
