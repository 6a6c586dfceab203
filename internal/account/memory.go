package account

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// MemoryStore is an in-memory Store for tests and local runs
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryStore creates a store seeded with accounts
func NewMemoryStore(seed ...Account) *MemoryStore {
	s := &MemoryStore{accounts: make(map[string]Account)}
	for _, a := range seed {
		if a.CreatedAt.IsZero() {
			a.CreatedAt = time.Now().UTC()
		}
		s.accounts[a.ID] = a
	}
	return s
}

func (s *MemoryStore) Create(ctx context.Context, a *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return nil, fmt.Errorf("account %q: %w", a.ID, apperr.ErrDuplicate)
	}
	created := *a
	created.CreatedAt = time.Now().UTC()
	s.accounts[a.ID] = created
	return &created, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		a := a
		all = append(all, &a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return []*Account{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}
