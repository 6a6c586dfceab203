package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/payment"
	"github.com/fkhayef/parkwise/internal/settlement"
	"github.com/fkhayef/parkwise/pkg/rabbitmq"
)

type publisherStub struct {
	keys   []string
	closed bool
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *publisherStub) Close() { p.closed = true }

type failingStore struct {
	*MemoryStore
}

func (failingStore) Create(ctx context.Context, n *Notification) error {
	return errors.New("connection reset")
}

// newTestService advances the clock a second per notification so list order is stable
func newTestService(store Store) *Service {
	svc := NewService(store)
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	return svc
}

func TestService_NotifyAndList(t *testing.T) {
	svc := newTestService(NewMemoryStore())
	ctx := context.Background()

	first, err := svc.NotifyPaymentReceived(ctx, "owner-a", "pay-1", "90.00")
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if first.Type != TypePaymentReceived || first.RelatedEntityID != "pay-1" || first.IsRead {
		t.Fatalf("unexpected notification %+v", first)
	}
	if !strings.Contains(first.Message, "90.00") {
		t.Fatalf("expected amount in message, got %q", first.Message)
	}
	second, _ := svc.NotifyCommissionSettled(ctx, "owner-a", "set-1", "25.00", 3)
	_, _ = svc.NotifyPaymentRefunded(ctx, "owner-b", "pay-2", "40.00")

	list, total, err := svc.ListByRecipientID(ctx, "owner-a", 1, 20, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected owner-a's two notifications newest first, got %d", total)
	}

	page, total, _ := svc.ListByRecipientID(ctx, "owner-a", 2, 1, false)
	if total != 2 || len(page) != 1 || page[0].ID != first.ID {
		t.Fatalf("unexpected second page %+v", page)
	}
}

func TestService_ReadState(t *testing.T) {
	svc := newTestService(NewMemoryStore())
	ctx := context.Background()

	n1, _ := svc.NotifyPaymentReceived(ctx, "owner-a", "pay-1", "90.00")
	_, _ = svc.NotifyPaymentReceived(ctx, "owner-a", "pay-2", "45.00")

	if err := svc.MarkAsRead(ctx, n1.ID, "owner-b"); !errors.Is(err, ErrNotRecipient) {
		t.Fatalf("expected ErrNotRecipient, got %v", err)
	}
	if err := svc.MarkAsRead(ctx, "missing", "owner-a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := svc.MarkAsRead(ctx, n1.ID, "owner-a"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if count, _ := svc.GetUnreadCount(ctx, "owner-a"); count != 1 {
		t.Fatalf("expected 1 unread, got %d", count)
	}
	unread, total, _ := svc.ListByRecipientID(ctx, "owner-a", 1, 20, true)
	if total != 1 || unread[0].RelatedEntityID != "pay-2" {
		t.Fatalf("unexpected unread list %+v", unread)
	}

	if err := svc.MarkAllAsRead(ctx, "owner-a"); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if count, _ := svc.GetUnreadCount(ctx, "owner-a"); count != 0 {
		t.Fatalf("expected 0 unread, got %d", count)
	}
}

func TestService_CreateErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := newTestService(NewMemoryStore()).NotifyPaymentReceived(ctx, "", "pay-1", "1.00"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation without a recipient, got %v", err)
	}

	svc := newTestService(failingStore{NewMemoryStore()})
	if _, err := svc.NotifyPaymentReceived(ctx, "owner-a", "pay-1", "1.00"); !errors.Is(err, apperr.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestPublisher_NotifiesOwnersAndForwards(t *testing.T) {
	store := NewMemoryStore()
	next := &publisherStub{}
	pub := NewPublisher(next, newTestService(store), zap.NewNop())
	ctx := context.Background()

	events := []struct {
		key  string
		body interface{}
	}{
		{rabbitmq.PaymentProcessed, payment.ProcessedEvent{PaymentID: "pay-1", OwnerAccountID: "owner-a", NetAmount: "90.00"}},
		{rabbitmq.PaymentRefunded, payment.RefundedEvent{PaymentID: "pay-1", OwnerAccountID: "owner-a", Amount: "100.00"}},
		{rabbitmq.CommissionSettled, settlement.SettledEvent{SettlementID: "set-1", OwnerAccountID: "owner-a", CommissionAmount: "10.00", PaymentCount: 1}},
		{rabbitmq.ReportGenerated, map[string]string{"report_id": "rep-1"}},
	}
	for _, e := range events {
		if err := pub.Publish(ctx, "parkwise.events", e.key, e.body); err != nil {
			t.Fatalf("publish %s: %v", e.key, err)
		}
	}

	if len(next.keys) != len(events) {
		t.Fatalf("expected every event forwarded, got %v", next.keys)
	}
	list, total, _ := store.ListByRecipientID(ctx, "owner-a", 10, 0, false)
	if total != 3 {
		t.Fatalf("expected 3 notifications, got %d", total)
	}
	want := []Type{TypeCommissionSettled, TypePaymentRefunded, TypePaymentReceived}
	for i, n := range list {
		if n.Type != want[i] {
			t.Errorf("notification %d: expected %s, got %s", i, want[i], n.Type)
		}
	}

	pub.Close()
	if !next.closed {
		t.Fatal("expected Close to reach the wrapped publisher")
	}
}

func TestPublisher_NotificationFailureDoesNotBlockEvent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	next := &publisherStub{}
	pub := NewPublisher(next, newTestService(failingStore{NewMemoryStore()}), zap.New(core))

	err := pub.Publish(context.Background(), "parkwise.events", rabbitmq.PaymentProcessed,
		payment.ProcessedEvent{PaymentID: "pay-1", OwnerAccountID: "owner-a", NetAmount: "90.00"})
	if err != nil {
		t.Fatalf("expected event to publish, got %v", err)
	}
	if len(next.keys) != 1 {
		t.Fatal("expected event forwarded")
	}
	if logs.FilterMessage("failed to create notification").Len() != 1 {
		t.Fatal("expected the failure to be logged")
	}
}
