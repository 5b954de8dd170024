package mocks

import (
	"context"
	"sync"

	"github.com/you/taskconsole/domain"
)

// MockFlowRepository implements domain.FlowRepository for testing.
// Without overrides it keeps flows in memory.
type MockFlowRepository struct {
	GetFunc    func(ctx context.Context, flowID string) (*domain.AuthFlowState, error)
	PutFunc    func(ctx context.Context, flowID string, state *domain.AuthFlowState) error
	DeleteFunc func(ctx context.Context, flowID string) error

	mu    sync.Mutex
	flows map[string]domain.AuthFlowState
}

// NewMockFlowRepository creates an empty flow repository
func NewMockFlowRepository() *MockFlowRepository {
	return &MockFlowRepository{flows: make(map[string]domain.AuthFlowState)}
}

// Get returns a copy of the flow, or nil when absent
func (m *MockFlowRepository) Get(ctx context.Context, flowID string) (*domain.AuthFlowState, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, flowID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flows[flowID]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// Put stores a copy of state
func (m *MockFlowRepository) Put(ctx context.Context, flowID string, state *domain.AuthFlowState) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, flowID, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[flowID] = *state
	return nil
}

// Delete removes the flow
func (m *MockFlowRepository) Delete(ctx context.Context, flowID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, flowID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flows, flowID)
	return nil
}

// Compile-time interface compliance verification
var _ domain.FlowRepository = (*MockFlowRepository)(nil)
