package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// Store is the append-only payment ledger the service writes to
type Store interface {
	Append(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	QueryByCreatedRange(ctx context.Context, start, end time.Time) ([]*Payment, error)
	QueryByOwner(ctx context.Context, ownerID string) ([]*Payment, error)
	// UpdateStatus moves one status field from -> to only if it currently
	// equals from. It returns an ErrNotFound or ErrInvalidTransition kind
	// when nothing was updated.
	UpdateStatus(ctx context.Context, id string, field StatusField, from, to string, at time.Time) (*Payment, error)
	// CommissionTotals only counts Completed payments; a refund hands the
	// commission back.
	CommissionTotals(ctx context.Context) (CommissionTotals, error)
	// AppendRefund records the refund and moves the payment from Completed
	// to Refunded as one unit.
	AppendRefund(ctx context.Context, refund *Refund) error
}

const uniqueViolation = "23505"

const paymentColumns = `
	id, invoice_id, driver_id, parking_slot_id, owner_account_id,
	gross_amount, commission_rate, commission_amount, net_amount,
	payment_method, payment_status, transaction_id, commission_status,
	commission_collected_at, created_at, updated_at`

// Repository handles payment data persistence in Postgres
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new payment repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	p := &Payment{}
	var collectedAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.InvoiceID,
		&p.DriverID,
		&p.ParkingSlotID,
		&p.OwnerAccountID,
		&p.GrossAmount,
		&p.CommissionRate,
		&p.CommissionAmount,
		&p.NetAmount,
		&p.PaymentMethod,
		&p.PaymentStatus,
		&p.TransactionID,
		&p.CommissionStatus,
		&collectedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if collectedAt.Valid {
		t := collectedAt.Time
		p.CommissionCollectedAt = &t
	}
	return p, nil
}

// Append inserts a payment. Re-sending a record with an id that already
// exists is a no-op so callers can retry with the same record.
func (r *Repository) Append(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.InvoiceID, p.DriverID, p.ParkingSlotID, p.OwnerAccountID,
		p.GrossAmount, p.CommissionRate, p.CommissionAmount, p.NetAmount,
		p.PaymentMethod, p.PaymentStatus, p.TransactionID, p.CommissionStatus,
		p.CommissionCollectedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("transaction %q already recorded: %w", p.TransactionID, apperr.ErrDuplicate)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// QueryByCreatedRange returns payments with start <= created_at < end
func (r *Repository) QueryByCreatedRange(ctx context.Context, start, end time.Time) ([]*Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, "failed to query payments by range", query, start, end)
}

// QueryByOwner returns an owner's payments, newest first
func (r *Repository) QueryByOwner(ctx context.Context, ownerID string) ([]*Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE owner_account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	return r.list(ctx, "failed to query payments by owner", query, ownerID)
}

func (r *Repository) list(ctx context.Context, failure, query string, args ...any) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", failure, err)
	}
	defer rows.Close()

	payments := []*Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", failure, err)
	}

	return payments, nil
}

// UpdateStatus performs a conditional single-row update of one status field
func (r *Repository) UpdateStatus(ctx context.Context, id string, field StatusField, from, to string, at time.Time) (*Payment, error) {
	var query string
	switch field {
	case FieldPaymentStatus:
		query = `
			UPDATE payments
			SET payment_status = $3, updated_at = $4
			WHERE id = $1 AND payment_status = $2
			RETURNING ` + paymentColumns
	case FieldCommissionStatus:
		query = `
			UPDATE payments
			SET commission_status = $3,
			    commission_collected_at = CASE WHEN $3::text = 'Collected' THEN $4::timestamptz ELSE commission_collected_at END,
			    updated_at = $4
			WHERE id = $1 AND commission_status = $2
			RETURNING ` + paymentColumns
	default:
		return nil, fmt.Errorf("unknown status field %q", field)
	}

	p, err := scanPayment(r.db.QueryRowContext(ctx, query, id, from, to, at))
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if existing == nil {
		return nil, apperr.NotFound("payment", id)
	}
	current := string(existing.PaymentStatus)
	if field == FieldCommissionStatus {
		current = string(existing.CommissionStatus)
	}
	return nil, apperr.Transition(string(field), current, to)
}

// CommissionTotals sums commission amounts on Completed payments grouped by
// commission status
func (r *Repository) CommissionTotals(ctx context.Context) (CommissionTotals, error) {
	query := `
		SELECT commission_status, COALESCE(SUM(commission_amount), 0)
		FROM payments
		WHERE payment_status = 'Completed'
		GROUP BY commission_status
	`

	totals := newCommissionTotals()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return totals, fmt.Errorf("failed to sum commissions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status CommissionStatus
		var sum decimal.Decimal
		if err := rows.Scan(&status, &sum); err != nil {
			return totals, fmt.Errorf("failed to scan commission totals: %w", err)
		}
		totals.add(status, sum)
	}

	return totals, rows.Err()
}

// AppendRefund inserts the refund and flips the payment status in one transaction
func (r *Repository) AppendRefund(ctx context.Context, refund *Refund) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin refund: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payments
		SET payment_status = $2, updated_at = $3
		WHERE id = $1 AND payment_status = $4
	`, refund.PaymentID, StatusRefunded, refund.CreatedAt, StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark payment refunded: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Transition(string(FieldPaymentStatus), "current status", string(StatusRefunded))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_refunds (id, payment_id, amount, commission_reversed, net_reversed, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, refund.ID, refund.PaymentID, refund.Amount, refund.CommissionReversed, refund.NetReversed, refund.Reason, refund.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("payment %q already refunded: %w", refund.PaymentID, apperr.ErrDuplicate)
		}
		return fmt.Errorf("failed to create refund: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit refund: %w", err)
	}
	return nil
}
