package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/database/dbtest"
)

func newStoredPayment(owner, txn, gross string, createdAt time.Time) *Payment {
	g := decimal.RequireFromString(gross)
	c := g.Mul(decimal.RequireFromString("0.10")).Round(2)
	return &Payment{
		ID:               uuid.NewString(),
		InvoiceID:        "inv-" + txn,
		DriverID:         "drv-1",
		ParkingSlotID:    "slot-1",
		OwnerAccountID:   owner,
		GrossAmount:      g,
		CommissionRate:   decimal.RequireFromString("0.10"),
		CommissionAmount: c,
		NetAmount:        g.Sub(c),
		PaymentMethod:    MethodCreditCard,
		PaymentStatus:    StatusCompleted,
		TransactionID:    txn,
		CommissionStatus: CommissionPending,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func TestRepository_Postgres(t *testing.T) {
	db := dbtest.NewPostgres(t)
	repo := NewRepository(db)
	ctx := context.Background()

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)

	atStart := newStoredPayment("muni1", "txn-start", "100.00", start)
	inside := newStoredPayment("muni1", "txn-inside", "250.50", start.Add(48*time.Hour))
	atEnd := newStoredPayment("est1", "txn-end", "80.00", end)
	for _, p := range []*Payment{atStart, inside, atEnd} {
		if err := repo.Append(ctx, p); err != nil {
			t.Fatalf("append %s: %v", p.TransactionID, err)
		}
	}

	t.Run("append is idempotent on id", func(t *testing.T) {
		if err := repo.Append(ctx, atStart); err != nil {
			t.Fatalf("re-append: %v", err)
		}
	})

	t.Run("duplicate transaction id", func(t *testing.T) {
		dup := newStoredPayment("muni1", "txn-start", "10.00", start)
		if err := repo.Append(ctx, dup); !errors.Is(err, apperr.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("range is half open", func(t *testing.T) {
		got, err := repo.QueryByCreatedRange(ctx, start, end)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 2 || got[0].ID != atStart.ID || got[1].ID != inside.ID {
			t.Fatalf("expected start and inside payments, got %d", len(got))
		}
		if !got[1].GrossAmount.Equal(inside.GrossAmount) || !got[1].NetAmount.Equal(inside.NetAmount) {
			t.Fatalf("amounts did not round trip: %s/%s", got[1].GrossAmount, got[1].NetAmount)
		}
	})

	t.Run("owner query newest first", func(t *testing.T) {
		got, err := repo.QueryByOwner(ctx, "muni1")
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 2 || got[0].ID != inside.ID {
			t.Fatalf("expected inside payment first, got %+v", got)
		}
	})

	t.Run("compare and set commission status", func(t *testing.T) {
		at := start.Add(72 * time.Hour)
		p, err := repo.UpdateStatus(ctx, inside.ID, FieldCommissionStatus, "Pending", "Collected", at)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if p.CommissionStatus != CommissionCollected || p.CommissionCollectedAt == nil {
			t.Fatalf("expected Collected with timestamp, got %+v", p)
		}

		if _, err := repo.UpdateStatus(ctx, inside.ID, FieldCommissionStatus, "Pending", "Collected", at); !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
		if _, err := repo.UpdateStatus(ctx, "missing", FieldCommissionStatus, "Pending", "Collected", at); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("commission totals", func(t *testing.T) {
		totals, err := repo.CommissionTotals(ctx)
		if err != nil {
			t.Fatalf("totals: %v", err)
		}
		// atStart 10.00 + atEnd 8.00 pending; inside 25.05 collected
		if totals.Pending.StringFixed(2) != "18.00" || totals.Collected.StringFixed(2) != "25.05" {
			t.Fatalf("unexpected totals %+v", totals)
		}
	})

	t.Run("refund", func(t *testing.T) {
		refund := &Refund{
			ID:                 uuid.NewString(),
			PaymentID:          atEnd.ID,
			Amount:             decimal.RequireFromString("80.00"),
			CommissionReversed: decimal.RequireFromString("8.00"),
			NetReversed:        decimal.RequireFromString("72.00"),
			Reason:             "duplicate charge",
			CreatedAt:          end.Add(time.Hour),
		}
		if err := repo.AppendRefund(ctx, refund); err != nil {
			t.Fatalf("refund: %v", err)
		}
		p, _ := repo.GetByID(ctx, atEnd.ID)
		if p.PaymentStatus != StatusRefunded || !p.GrossAmount.Equal(atEnd.GrossAmount) {
			t.Fatalf("expected Refunded with original amount, got %+v", p)
		}

		refund.ID = uuid.NewString()
		if err := repo.AppendRefund(ctx, refund); !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("missing payment", func(t *testing.T) {
		p, err := repo.GetByID(ctx, "missing")
		if err != nil || p != nil {
			t.Fatalf("expected nil, nil; got %v, %v", p, err)
		}
	})
}
