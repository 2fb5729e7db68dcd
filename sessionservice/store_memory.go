package sessionservice

import (
	"context"
	"sync"
)

// MemoryStore keeps sessions in a map. It is lost when the process exits.
type MemoryStore struct {
	sessions map[string]Session
	lock     sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session)}
}

func (m *MemoryStore) Create(_ context.Context, session Session) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.sessions[session.Token]; ok {
		return ErrSessionExists
	}
	m.sessions[session.Token] = session
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, token string) (bool, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	_, ok := m.sessions[token]
	return ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.sessions[token]; !ok {
		return ErrNoSession
	}
	delete(m.sessions, token)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Len returns the number of active sessions.
func (m *MemoryStore) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.sessions)
}
