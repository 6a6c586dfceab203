package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/database/dbtest"
	"github.com/fkhayef/parkwise/internal/payment"
)

func appendCollected(t *testing.T, ledger *payment.Repository, id, owner, commission string, at time.Time) {
	t.Helper()
	ctx := context.Background()
	c := decimal.RequireFromString(commission)
	gross := c.Mul(decimal.NewFromInt(10))
	p := &payment.Payment{
		ID:               id,
		InvoiceID:        "inv-" + id,
		DriverID:         "drv-1",
		ParkingSlotID:    "slot-1",
		OwnerAccountID:   owner,
		GrossAmount:      gross,
		CommissionRate:   decimal.RequireFromString("0.10"),
		CommissionAmount: c,
		NetAmount:        gross.Sub(c),
		PaymentMethod:    payment.MethodPrepaid,
		PaymentStatus:    payment.StatusCompleted,
		TransactionID:    "txn-" + id,
		CommissionStatus: payment.CommissionPending,
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	if err := ledger.Append(ctx, p); err != nil {
		t.Fatalf("append %s: %v", id, err)
	}
	if _, err := ledger.UpdateStatus(ctx, id, payment.FieldCommissionStatus, "Pending", "Collected", at); err != nil {
		t.Fatalf("collect %s: %v", id, err)
	}
}

func TestRepository_Postgres(t *testing.T) {
	db := dbtest.NewPostgres(t)
	repo := NewRepository(db)
	ledger := payment.NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	appendCollected(t, ledger, "pay-2", "muni1", "2.55", base)
	appendCollected(t, ledger, "pay-1", "muni1", "10.00", base)
	appendCollected(t, ledger, "pay-9", "other", "99.00", base)

	commissionStatus := func(id string) payment.CommissionStatus {
		t.Helper()
		p, err := ledger.GetByID(ctx, id)
		if err != nil || p == nil {
			t.Fatalf("get %s: %v, %v", id, p, err)
		}
		return p.CommissionStatus
	}

	first := &Settlement{ID: "set-1", OwnerAccountID: "muni1", SettledBy: "admin-1", CreatedAt: base}
	if err := repo.Settle(ctx, first); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if first.CommissionAmount.StringFixed(2) != "12.55" || len(first.PaymentIDs) != 2 || first.PaymentIDs[0] != "pay-1" {
		t.Fatalf("unexpected settlement %+v", first)
	}
	if commissionStatus("pay-1") != payment.CommissionPaid || commissionStatus("pay-9") != payment.CommissionCollected {
		t.Fatal("only muni1's commissions should be paid")
	}

	t.Run("nothing to settle writes nothing", func(t *testing.T) {
		empty := &Settlement{ID: "set-empty", OwnerAccountID: "muni1", SettledBy: "admin-1", CreatedAt: base}
		if err := repo.Settle(ctx, empty); err != nil || len(empty.PaymentIDs) != 0 {
			t.Fatalf("expected an empty settle, got %v, %v", empty.PaymentIDs, err)
		}
		if got, _ := repo.GetByID(ctx, "set-empty"); got != nil {
			t.Fatal("empty settlement must not be stored")
		}
	})

	t.Run("failed insert rolls the payments back", func(t *testing.T) {
		appendCollected(t, ledger, "pay-3", "muni1", "3.00", base)
		dup := &Settlement{ID: "set-1", OwnerAccountID: "muni1", SettledBy: "admin-1", CreatedAt: base.Add(time.Hour)}
		if err := repo.Settle(ctx, dup); err == nil {
			t.Fatal("expected duplicate id to fail")
		}
		if commissionStatus("pay-3") != payment.CommissionCollected {
			t.Fatal("expected pay-3 to stay Collected")
		}

		second := &Settlement{ID: "set-2", OwnerAccountID: "muni1", SettledBy: "admin-1", CreatedAt: base.Add(time.Hour)}
		if err := repo.Settle(ctx, second); err != nil || len(second.PaymentIDs) != 1 {
			t.Fatalf("retry: %v, %v", second.PaymentIDs, err)
		}
	})

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if !got.CommissionAmount.Equal(first.CommissionAmount) || len(got.PaymentIDs) != 2 || got.PaymentIDs[1] != "pay-2" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if missing, err := repo.GetByID(ctx, "nope"); err != nil || missing != nil {
		t.Fatalf("expected nil, nil; got %v, %v", missing, err)
	}

	list, total, err := repo.ListByOwner(ctx, "muni1", 1, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(list) != 1 || list[0].ID != "set-2" {
		t.Fatalf("expected newest of 2, got %d items of %d", len(list), total)
	}
}
