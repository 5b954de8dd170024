package mocks

import (
	"context"
	"sync"

	"github.com/you/taskconsole/domain"
)

// MockSessionStore implements domain.SessionStore for testing.
// Without overrides it behaves like an in-memory slot.
type MockSessionStore struct {
	SaveFunc  func(ctx context.Context, session *domain.Session) error
	LoadFunc  func(ctx context.Context) (*domain.Session, error)
	ClearFunc func(ctx context.Context) error

	mu      sync.Mutex
	current *domain.Session
}

// NewMockSessionStore creates an empty slot, or one holding initial
func NewMockSessionStore(initial *domain.Session) *MockSessionStore {
	return &MockSessionStore{current: initial}
}

// Save stores a copy of session
func (m *MockSessionStore) Save(ctx context.Context, session *domain.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	if !session.Complete() {
		return domain.ErrSessionInvalid
	}
	m.Set(session)
	return nil
}

// Load returns the stored session or ErrSessionNotFound
func (m *MockSessionStore) Load(ctx context.Context) (*domain.Session, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	if s := m.Current(); s != nil {
		return s, nil
	}
	return nil, domain.ErrSessionNotFound
}

// Clear empties the slot
func (m *MockSessionStore) Clear(ctx context.Context) error {
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	m.Set(nil)
	return nil
}

// Set replaces the slot content directly (test helper)
func (m *MockSessionStore) Set(session *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session == nil {
		m.current = nil
		return
	}
	cp := *session
	m.current = &cp
}

// Current returns a copy of the slot content (test helper)
func (m *MockSessionStore) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// MockSessionProvider implements domain.SessionProvider with one MockSessionStore per slot
type MockSessionProvider struct {
	mu    sync.Mutex
	slots map[string]*MockSessionStore
}

// NewMockSessionProvider creates a provider with no populated slots
func NewMockSessionProvider() *MockSessionProvider {
	return &MockSessionProvider{slots: make(map[string]*MockSessionStore)}
}

// Slot returns the store for slotID, creating it on first use
func (p *MockSessionProvider) Slot(slotID string) domain.SessionStore {
	return p.Store(slotID)
}

// Store is Slot with the concrete type (test helper)
func (p *MockSessionProvider) Store(slotID string) *MockSessionStore {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.slots[slotID]
	if !ok {
		s = NewMockSessionStore(nil)
		p.slots[slotID] = s
	}
	return s
}

// Compile-time interface compliance verification
var (
	_ domain.SessionStore    = (*MockSessionStore)(nil)
	_ domain.SessionProvider = (*MockSessionProvider)(nil)
)
