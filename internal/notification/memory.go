package notification

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is a mutex-guarded Store used in tests
type MemoryStore struct {
	mu            sync.RWMutex
	notifications map[string]*Notification
}

// NewMemoryStore creates an empty in-memory notification store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{notifications: make(map[string]*Notification)}
}

func (m *MemoryStore) Create(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *n
	m.notifications[n.ID] = &c
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (m *MemoryStore) ListByRecipientID(ctx context.Context, recipientID string, limit, offset int, unreadOnly bool) ([]*Notification, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := []*Notification{}
	for _, n := range m.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *MemoryStore) MarkAsRead(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n, ok := m.notifications[id]; ok {
		n.IsRead = true
	}
	return nil
}

func (m *MemoryStore) MarkAllAsRead(ctx context.Context, recipientID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.notifications {
		if n.RecipientID == recipientID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *MemoryStore) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, n := range m.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
