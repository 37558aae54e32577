package repofakes

import (
	"sync"

	"github.com/gatekit/gatekit/codes"
)

var _ codes.Repo = (*FakeCodeRepo)(nil)

type FakeCodeRepo struct {
	byCode map[string]*codes.VerificationCode
	lock   sync.RWMutex
}

func NewFakeCodeRepo() *FakeCodeRepo {
	return &FakeCodeRepo{
		byCode: make(map[string]*codes.VerificationCode),
	}
}

func (cr *FakeCodeRepo) Upsert(code *codes.VerificationCode) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	copied := *code
	cr.byCode[code.Code] = &copied
	return nil
}

func (cr *FakeCodeRepo) GetByCode(code string) (*codes.VerificationCode, error) {
	cr.lock.RLock()
	defer cr.lock.RUnlock()

	row, ok := cr.byCode[code]
	if !ok {
		return nil, codes.ErrInvalidCode
	}
	copied := *row
	return &copied, nil
}

func (cr *FakeCodeRepo) DeleteByCode(code string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()
	delete(cr.byCode, code)
	return nil
}

func (cr *FakeCodeRepo) DeleteForUser(userID string) error {
	cr.lock.Lock()
	defer cr.lock.Unlock()

	for code, row := range cr.byCode {
		if row.UserID == userID {
			delete(cr.byCode, code)
		}
	}
	return nil
}

// Count returns the number of live code rows. Test helper.
func (cr *FakeCodeRepo) Count() int {
	cr.lock.RLock()
	defer cr.lock.RUnlock()
	return len(cr.byCode)
}
