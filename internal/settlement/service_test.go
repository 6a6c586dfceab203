package settlement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/payment"
)

type publisherStub struct {
	keys []string
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *publisherStub) Close() {}

type failingStore struct {
	*MemoryStore
}

func (failingStore) Settle(ctx context.Context, s *Settlement) error {
	return errors.New("connection reset")
}

var testNow = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	ledger *payment.MemoryStore
	store  *MemoryStore
	events *publisherStub
	seq    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ledger := payment.NewMemoryStore()
	f := &fixture{
		ledger: ledger,
		store:  NewMemoryStore(ledger),
		events: &publisherStub{},
	}
	f.svc = NewService(f.store, f.ledger, f.events, "parkwise.events", zap.NewNop())
	f.svc.now = func() time.Time { return testNow }
	return f
}

// seed appends a completed payment and walks its commission to status
func (f *fixture) seed(t *testing.T, owner, commission string, status payment.CommissionStatus) *payment.Payment {
	t.Helper()
	f.seq++
	c := decimal.RequireFromString(commission)
	gross := c.Mul(decimal.NewFromInt(10))
	p := &payment.Payment{
		ID:               fmt.Sprintf("pay-%d", f.seq),
		InvoiceID:        fmt.Sprintf("inv-%d", f.seq),
		DriverID:         "drv-1",
		ParkingSlotID:    "slot-1",
		OwnerAccountID:   owner,
		GrossAmount:      gross,
		CommissionRate:   decimal.RequireFromString("0.10"),
		CommissionAmount: c,
		NetAmount:        gross.Sub(c),
		PaymentMethod:    payment.MethodPrepaid,
		PaymentStatus:    payment.StatusCompleted,
		TransactionID:    fmt.Sprintf("txn-%d", f.seq),
		CommissionStatus: payment.CommissionPending,
		CreatedAt:        testNow.Add(-time.Duration(f.seq) * time.Hour),
		UpdatedAt:        testNow,
	}
	if err := f.ledger.Append(context.Background(), p); err != nil {
		t.Fatalf("append: %v", err)
	}

	ctx := context.Background()
	if status == payment.CommissionCollected || status == payment.CommissionPaid {
		if _, err := f.ledger.UpdateStatus(ctx, p.ID, payment.FieldCommissionStatus, "Pending", "Collected", testNow); err != nil {
			t.Fatalf("collect: %v", err)
		}
	}
	if status == payment.CommissionPaid {
		if _, err := f.ledger.UpdateStatus(ctx, p.ID, payment.FieldCommissionStatus, "Collected", "Paid", testNow); err != nil {
			t.Fatalf("pay: %v", err)
		}
	}
	return p
}

func TestSettleOwner(t *testing.T) {
	f := newFixture(t)
	a := f.seed(t, "muni1", "10.00", payment.CommissionCollected)
	b := f.seed(t, "muni1", "2.55", payment.CommissionCollected)
	pending := f.seed(t, "muni1", "5.00", payment.CommissionPending)
	f.seed(t, "muni1", "7.00", payment.CommissionPaid)
	f.seed(t, "other", "99.00", payment.CommissionCollected)

	settlement, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settlement.CommissionAmount.StringFixed(2) != "12.55" || len(settlement.PaymentIDs) != 2 {
		t.Fatalf("expected 12.55 over 2 payments, got %s over %d", settlement.CommissionAmount, len(settlement.PaymentIDs))
	}
	if settlement.SettledBy != "admin-1" || !settlement.CreatedAt.Equal(testNow) {
		t.Fatalf("unexpected settlement %+v", settlement)
	}

	for _, id := range []string{a.ID, b.ID} {
		p, _ := f.ledger.GetByID(context.Background(), id)
		if p.CommissionStatus != payment.CommissionPaid {
			t.Fatalf("expected %s to be Paid, got %s", id, p.CommissionStatus)
		}
	}
	if p, _ := f.ledger.GetByID(context.Background(), pending.ID); p.CommissionStatus != payment.CommissionPending {
		t.Fatalf("pending commission must not be settled, got %s", p.CommissionStatus)
	}

	stored, _ := f.store.GetByID(context.Background(), settlement.ID)
	if stored == nil {
		t.Fatal("expected settlement to be stored")
	}
	if len(f.events.keys) != 1 || f.events.keys[0] != "commission.settled" {
		t.Fatalf("expected commission.settled event, got %v", f.events.keys)
	}
}

func TestSettleOwner_NothingToSettle(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "muni1", "10.00", payment.CommissionPending)

	_, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1")
	if !errors.Is(err, ErrNothingToSettle) || !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrNothingToSettle, got %v", err)
	}

	if _, err := f.svc.SettleOwner(context.Background(), " ", "admin-1"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for a blank owner, got %v", err)
	}
}

func TestSettleOwner_SecondRunFindsNothing(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "muni1", "10.00", payment.CommissionCollected)

	if _, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1"); !errors.Is(err, ErrNothingToSettle) {
		t.Fatalf("commissions must not be settled twice, got %v", err)
	}
}

func (f *fixture) commissionStatus(t *testing.T, id string) payment.CommissionStatus {
	t.Helper()
	p, err := f.ledger.GetByID(context.Background(), id)
	if err != nil || p == nil {
		t.Fatalf("get %s: %v, %v", id, p, err)
	}
	return p.CommissionStatus
}

func TestSettleOwner_PersistenceFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.store = failingStore{MemoryStore: f.store}
	p := f.seed(t, "muni1", "10.00", payment.CommissionCollected)

	if _, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1"); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(f.events.keys) != 0 {
		t.Fatal("no event should be published when recording fails")
	}
	if got := f.commissionStatus(t, p.ID); got != payment.CommissionCollected {
		t.Fatalf("expected commission to stay Collected, got %s", got)
	}
	out, _ := f.svc.GetOutstanding(context.Background(), "muni1")
	if out.CommissionAmount.StringFixed(2) != "10.00" || out.PaymentCount != 1 {
		t.Fatalf("expected the commission to remain outstanding, got %s over %d", out.CommissionAmount, out.PaymentCount)
	}
}

func TestSettleOwner_FailedRecordLeavesCommissionsCollected(t *testing.T) {
	f := newFixture(t)
	f.svc.newID = func() string { return "set-1" }
	f.seed(t, "muni1", "10.00", payment.CommissionCollected)

	if _, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1"); err != nil {
		t.Fatalf("first settlement: %v", err)
	}

	// The reused id makes the insert fail after the payments were selected.
	p := f.seed(t, "muni1", "4.20", payment.CommissionCollected)
	if _, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1"); err == nil {
		t.Fatal("expected the second settlement to fail")
	}
	if got := f.commissionStatus(t, p.ID); got != payment.CommissionCollected {
		t.Fatalf("expected commission to stay Collected, got %s", got)
	}
	if _, total, _ := f.store.ListByOwner(context.Background(), "muni1", 10, 0); total != 1 {
		t.Fatalf("expected only the first settlement recorded, got %d", total)
	}

	f.svc.newID = func() string { return "set-2" }
	settlement, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(settlement.PaymentIDs) != 1 || settlement.PaymentIDs[0] != p.ID {
		t.Fatalf("expected the retry to settle %s, got %v", p.ID, settlement.PaymentIDs)
	}
}

func TestSettleOwner_CancelledContext(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "muni1", "10.00", payment.CommissionCollected)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.svc.SettleOwner(ctx, "muni1", "admin-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := f.commissionStatus(t, p.ID); got != payment.CommissionCollected {
		t.Fatalf("expected commission to stay Collected, got %s", got)
	}
}

func TestGetOutstanding(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "muni1", "10.00", payment.CommissionCollected)
	f.seed(t, "muni1", "1.50", payment.CommissionCollected)
	f.seed(t, "muni1", "4.00", payment.CommissionPending)
	f.seed(t, "muni1", "8.00", payment.CommissionPaid)

	out, err := f.svc.GetOutstanding(context.Background(), "muni1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.CommissionAmount.StringFixed(2) != "11.50" || out.PaymentCount != 2 {
		t.Fatalf("expected 11.50 over 2, got %s over %d", out.CommissionAmount, out.PaymentCount)
	}
}

func TestListByOwner_Paginates(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.seed(t, "muni1", "1.00", payment.CommissionCollected)
		f.svc.now = func() time.Time { return testNow.Add(time.Duration(i) * time.Minute) }
		if _, err := f.svc.SettleOwner(context.Background(), "muni1", "admin-1"); err != nil {
			t.Fatalf("settle %d: %v", i, err)
		}
	}

	page, total, err := f.svc.ListByOwner(context.Background(), "muni1", 1, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 || len(page) != 2 {
		t.Fatalf("expected 2 of 3, got %d of %d", len(page), total)
	}
	if !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Fatal("expected newest first")
	}

	if _, err := f.svc.GetByID(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
