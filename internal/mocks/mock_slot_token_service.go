package mocks

import (
	"strings"

	"github.com/you/taskconsole/domain"
)

// MockSlotTokenService implements domain.SlotTokenService for testing.
// By default a token is "slot:" followed by the slot id.
type MockSlotTokenService struct {
	IssueFunc    func(slotID string) (string, error)
	ValidateFunc func(token string) (string, error)
}

// NewMockSlotTokenService creates a new MockSlotTokenService with default behaviors
func NewMockSlotTokenService() *MockSlotTokenService {
	return &MockSlotTokenService{}
}

// Issue implements domain.SlotTokenService
func (m *MockSlotTokenService) Issue(slotID string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(slotID)
	}
	return "slot:" + slotID, nil
}

// Validate implements domain.SlotTokenService
func (m *MockSlotTokenService) Validate(token string) (string, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(token)
	}
	slot, ok := strings.CutPrefix(token, "slot:")
	if !ok || slot == "" {
		return "", domain.ErrTokenInvalid
	}
	return slot, nil
}

// Compile-time interface compliance verification
var _ domain.SlotTokenService = (*MockSlotTokenService)(nil)
