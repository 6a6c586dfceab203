package settlement

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/payment"
)

// MemoryStore is a mutex-guarded Store used in tests. Settling goes through
// the payment ledger's lock so the status change and the record land together.
type MemoryStore struct {
	mu          sync.RWMutex
	ledger      *payment.MemoryStore
	settlements map[string]*Settlement
}

// NewMemoryStore creates an empty in-memory settlement store over ledger
func NewMemoryStore(ledger *payment.MemoryStore) *MemoryStore {
	return &MemoryStore{ledger: ledger, settlements: make(map[string]*Settlement)}
}

func cloneSettlement(s *Settlement) *Settlement {
	c := *s
	c.PaymentIDs = append([]string{}, s.PaymentIDs...)
	return &c
}

func (m *MemoryStore) Settle(ctx context.Context, s *Settlement) error {
	return m.ledger.PayCollected(ctx, s.OwnerAccountID, s.CreatedAt, func(paid []*payment.Payment) error {
		if len(paid) == 0 {
			return nil
		}
		m.mu.Lock()
		defer m.mu.Unlock()

		if _, exists := m.settlements[s.ID]; exists {
			return fmt.Errorf("settlement %q: %w", s.ID, apperr.ErrDuplicate)
		}

		ids := make([]string, len(paid))
		amount := decimal.Zero
		for i, p := range paid {
			ids[i] = p.ID
			amount = amount.Add(p.CommissionAmount)
		}
		s.PaymentIDs = ids
		s.CommissionAmount = amount
		m.settlements[s.ID] = cloneSettlement(s)
		return nil
	})
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.settlements[id]
	if !ok {
		return nil, nil
	}
	return cloneSettlement(s), nil
}

func (m *MemoryStore) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Settlement, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := []*Settlement{}
	for _, s := range m.settlements {
		if s.OwnerAccountID == ownerID {
			all = append(all, cloneSettlement(s))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*Settlement{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}
