package fakesessionstore

import (
	"sync"

	"github.com/jrsteele09/go-storefront/internal/errors"
	"github.com/jrsteele09/go-storefront/sessions"
)

var _ sessions.Store = (*FakeSessionStore)(nil)

type FakeSessionStore struct {
	session *sessions.Session
	saveErr error
	loadErr error
	cleared int
	saves   int
	lock    sync.RWMutex
}

func NewFakeSessionStore() *FakeSessionStore {
	return &FakeSessionStore{}
}

// NewFakeSessionStoreWith returns a store pre-populated with session, as if left by a previous run
func NewFakeSessionStoreWith(session sessions.Session) *FakeSessionStore {
	s := session.Clone()
	return &FakeSessionStore{session: &s}
}

func (ss *FakeSessionStore) Load() (sessions.Session, error) {
	ss.lock.RLock()
	defer ss.lock.RUnlock()

	if ss.loadErr != nil {
		return sessions.Session{}, ss.loadErr
	}
	if ss.session == nil {
		return sessions.Session{}, errors.ErrSessionNotFound
	}
	return ss.session.Clone(), nil
}

func (ss *FakeSessionStore) Save(session sessions.Session) error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	if ss.saveErr != nil {
		return ss.saveErr
	}
	s := session.Clone()
	ss.session = &s
	ss.saves++
	return nil
}

func (ss *FakeSessionStore) Clear() error {
	ss.lock.Lock()
	defer ss.lock.Unlock()

	ss.session = nil
	ss.loadErr = nil
	ss.cleared++
	return nil
}

// FailSaves makes every subsequent Save return err
func (ss *FakeSessionStore) FailSaves(err error) {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	ss.saveErr = err
}

// FailLoads makes Load return err until the store is cleared
func (ss *FakeSessionStore) FailLoads(err error) {
	ss.lock.Lock()
	defer ss.lock.Unlock()
	ss.loadErr = err
}

func (ss *FakeSessionStore) Clears() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return ss.cleared
}

func (ss *FakeSessionStore) Saves() int {
	ss.lock.RLock()
	defer ss.lock.RUnlock()
	return ss.saves
}
