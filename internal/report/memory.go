package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// MemoryStore is a mutex-guarded Store returning deep copies
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*CommissionReport
}

// NewMemoryStore creates an empty in-memory report store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*CommissionReport)}
}

func cloneReport(r *CommissionReport) *CommissionReport {
	c := *r
	c.OwnerBreakdown = append([]OwnerBreakdown{}, r.OwnerBreakdown...)
	if r.ReviewedAt != nil {
		t := *r.ReviewedAt
		c.ReviewedAt = &t
	}
	if r.ProcessedAt != nil {
		t := *r.ProcessedAt
		c.ProcessedAt = &t
	}
	return &c
}

func (s *MemoryStore) Append(ctx context.Context, r *CommissionReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reports[r.ID]; exists {
		return nil
	}
	s.reports[r.ID] = cloneReport(r)
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*CommissionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	return cloneReport(r), nil
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]*CommissionReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*CommissionReport, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, cloneReport(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].GeneratedAt.After(out[j].GeneratedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (*CommissionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, apperr.NotFound("report", id)
	}
	if r.ReportStatus != from {
		return nil, apperr.Transition("report_status", string(r.ReportStatus), string(to))
	}

	r.ReportStatus = to
	stamp := at
	switch to {
	case StatusReviewed:
		r.ReviewedAt = &stamp
	case StatusProcessed:
		r.ProcessedAt = &stamp
	}
	return cloneReport(r), nil
}
