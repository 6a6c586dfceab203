package payment

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// MemoryStore is a mutex-guarded Store used in tests and local runs without
// Postgres. It hands out copies so callers never share records.
type MemoryStore struct {
	mu       sync.RWMutex
	payments map[string]*Payment
	byTxn    map[string]string
	refunds  map[string]*Refund
}

// NewMemoryStore creates an empty in-memory payment store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments: make(map[string]*Payment),
		byTxn:    make(map[string]string),
		refunds:  make(map[string]*Refund),
	}
}

func clonePayment(p *Payment) *Payment {
	c := *p
	if p.CommissionCollectedAt != nil {
		t := *p.CommissionCollectedAt
		c.CommissionCollectedAt = &t
	}
	return &c
}

func (s *MemoryStore) Append(ctx context.Context, p *Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[p.ID]; exists {
		return nil
	}
	if _, exists := s.byTxn[p.TransactionID]; exists {
		return fmt.Errorf("transaction %q already recorded: %w", p.TransactionID, apperr.ErrDuplicate)
	}

	s.payments[p.ID] = clonePayment(p)
	s.byTxn[p.TransactionID] = p.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	return clonePayment(p), nil
}

func (s *MemoryStore) QueryByCreatedRange(ctx context.Context, start, end time.Time) ([]*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Payment{}
	for _, p := range s.payments {
		if !p.CreatedAt.Before(start) && p.CreatedAt.Before(end) {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) QueryByOwner(ctx context.Context, ownerID string) ([]*Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*Payment{}
	for _, p := range s.payments {
		if p.OwnerAccountID == ownerID {
			out = append(out, clonePayment(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, field StatusField, from, to string, at time.Time) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, apperr.NotFound("payment", id)
	}

	switch field {
	case FieldPaymentStatus:
		if string(p.PaymentStatus) != from {
			return nil, apperr.Transition(string(field), string(p.PaymentStatus), to)
		}
		p.PaymentStatus = Status(to)
	case FieldCommissionStatus:
		if string(p.CommissionStatus) != from {
			return nil, apperr.Transition(string(field), string(p.CommissionStatus), to)
		}
		p.CommissionStatus = CommissionStatus(to)
		if CommissionStatus(to) == CommissionCollected {
			collected := at
			p.CommissionCollectedAt = &collected
		}
	default:
		return nil, fmt.Errorf("unknown status field %q", field)
	}
	p.UpdatedAt = at

	return clonePayment(p), nil
}

// PayCollected moves the owner's collected commissions on completed payments
// to Paid. record sees the paid copies while the store is locked; when it
// fails no payment changes.
func (s *MemoryStore) PayCollected(ctx context.Context, ownerID string, at time.Time, record func(paid []*Payment) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	paid := []*Payment{}
	for _, p := range s.payments {
		if p.OwnerAccountID != ownerID || p.PaymentStatus != StatusCompleted || p.CommissionStatus != CommissionCollected {
			continue
		}
		c := clonePayment(p)
		c.CommissionStatus = CommissionPaid
		c.UpdatedAt = at
		paid = append(paid, c)
	}
	sort.Slice(paid, func(i, j int) bool { return paid[i].ID < paid[j].ID })

	if err := record(paid); err != nil {
		return err
	}
	for _, c := range paid {
		s.payments[c.ID] = clonePayment(c)
	}
	return nil
}

func (s *MemoryStore) CommissionTotals(ctx context.Context) (CommissionTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := newCommissionTotals()
	for _, p := range s.payments {
		if p.PaymentStatus == StatusCompleted {
			totals.add(p.CommissionStatus, p.CommissionAmount)
		}
	}
	return totals, nil
}

func (s *MemoryStore) AppendRefund(ctx context.Context, refund *Refund) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[refund.PaymentID]
	if !ok {
		return apperr.NotFound("payment", refund.PaymentID)
	}
	if _, exists := s.refunds[refund.PaymentID]; exists {
		return fmt.Errorf("payment %q already refunded: %w", refund.PaymentID, apperr.ErrDuplicate)
	}
	if p.PaymentStatus != StatusCompleted {
		return apperr.Transition(string(FieldPaymentStatus), string(p.PaymentStatus), string(StatusRefunded))
	}

	c := *refund
	s.refunds[refund.PaymentID] = &c
	p.PaymentStatus = StatusRefunded
	p.UpdatedAt = refund.CreatedAt
	return nil
}

// Refunds returns the recorded refund for a payment, if any
func (s *MemoryStore) Refund(paymentID string) (*Refund, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.refunds[paymentID]
	if !ok {
		return nil, false
	}
	c := *r
	return &c, true
}
