package conversation

import (
	"sync"
)

// SessionStore keys conversation state by phone number. The in-memory
// implementation below matches the single-process deployment; a shared
// store can be swapped in behind the same interface.
type SessionStore interface {
	Get(phone string) (*State, bool)
	Put(phone string, state *State)
	Delete(phone string)
}

type MemorySessions struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewMemorySessions() *MemorySessions {
	return &MemorySessions{sessions: make(map[string]*State)}
}

func (m *MemorySessions) Get(phone string) (*State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[phone]
	return s, ok
}

func (m *MemorySessions) Put(phone string, state *State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[phone] = state
}

func (m *MemorySessions) Delete(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, phone)
}
