package repofakes

import (
	"sync"

	"github.com/gatekit/gatekit/sessions"
)

var _ sessions.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]*sessions.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]*sessions.Session),
	}
}

func (sr *FakeSessionRepo) Insert(session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	copied := *session
	sr.sessions[session.ID] = &copied
	return nil
}

func (sr *FakeSessionRepo) Get(sessionID string) (*sessions.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	session, ok := sr.sessions[sessionID]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

func (sr *FakeSessionRepo) Update(session *sessions.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[session.ID]; !ok {
		return sessions.ErrNotFound
	}
	copied := *session
	sr.sessions[session.ID] = &copied
	return nil
}

func (sr *FakeSessionRepo) Delete(sessionID string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if _, ok := sr.sessions[sessionID]; !ok {
		return sessions.ErrNotFound
	}
	delete(sr.sessions, sessionID)
	return nil
}

// Count returns the number of stored sessions. Test helper.
func (sr *FakeSessionRepo) Count() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.sessions)
}
