package identity

import (
	"context"
	"sync"

	"github.com/zionnet/newsflow/internal/domain"
)

// MockUserRepository is a hand-written, in-memory implementation of
// UserRepository used in unit tests. No mock-generation library needed.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by id

	// Optional error overrides, set in tests to simulate failure paths.
	FindByEmailErr error
	InsertErr      error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	if m.FindByEmailErr != nil {
		return nil, m.FindByEmailErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *MockUserRepository) Insert(_ context.Context, u *domain.User) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	clone := *u
	m.users[u.ID] = &clone
	return nil
}

func (m *MockUserRepository) UpdatePreferences(_ context.Context, id string, preferences []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Preferences = append([]string(nil), preferences...)
	return nil
}

// Count returns the number of stored users, for idempotency assertions.
func (m *MockUserRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

var _ UserRepository = (*MockUserRepository)(nil)
