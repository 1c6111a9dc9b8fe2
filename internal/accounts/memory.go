package accounts

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store in process memory. It backs tests and the
// CLI's no-persistence mode.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*Account),
	}
}

// Save stores an account, replacing any record with the same UUID
func (s *MemoryStore) Save(ctx context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later caller mutations cannot reach stored state
	stored := *account
	s.accounts[account.UUID] = &stored
	return nil
}

// Get retrieves an account by player UUID
func (s *MemoryStore) Get(ctx context.Context, uuid string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[uuid]
	if !ok {
		return nil, nil
	}
	copied := *account
	return &copied, nil
}

// List returns all stored accounts ordered by username
func (s *MemoryStore) List(ctx context.Context) ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		copied := *account
		list = append(list, &copied)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list, nil
}

// Delete removes an account by player UUID
func (s *MemoryStore) Delete(ctx context.Context, uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.accounts, uuid)
	return nil
}

// CheckHealth always succeeds for the in-memory store
func (s *MemoryStore) CheckHealth(ctx context.Context) error {
	return nil
}
