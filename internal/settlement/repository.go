package settlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Store persists commission settlements. Settle marks the owner's collected
// commissions Paid and records the settlement in one step, filling in
// PaymentIDs and CommissionAmount; with nothing to settle it writes nothing.
type Store interface {
	Settle(ctx context.Context, s *Settlement) error
	GetByID(ctx context.Context, id string) (*Settlement, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Settlement, int, error)
}

// Repository handles settlement data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new settlement repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Settle pays out the owner's collected commissions and inserts the
// settlement in a single transaction
func (r *Repository) Settle(ctx context.Context, s *Settlement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		UPDATE payments
		SET commission_status = 'Paid', updated_at = $2
		WHERE owner_account_id = $1 AND payment_status = 'Completed' AND commission_status = 'Collected'
		RETURNING id, commission_amount
	`, s.OwnerAccountID, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to pay collected commissions: %w", err)
	}

	type paid struct {
		id     string
		amount decimal.Decimal
	}
	var payments []paid
	for rows.Next() {
		var p paid
		if err := rows.Scan(&p.id, &p.amount); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan paid commission: %w", err)
		}
		payments = append(payments, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to pay collected commissions: %w", err)
	}
	if len(payments) == 0 {
		return nil
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].id < payments[j].id })

	ids := make([]string, len(payments))
	amount := decimal.Zero
	for i, p := range payments {
		ids[i] = p.id
		amount = amount.Add(p.amount)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO commission_settlements (id, owner_account_id, commission_amount, payment_ids, settled_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.OwnerAccountID, amount, pq.Array(ids), s.SettledBy, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}
	s.PaymentIDs = ids
	s.CommissionAmount = amount
	return nil
}

// GetByID retrieves a settlement by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Settlement, error) {
	query := `
		SELECT id, owner_account_id, commission_amount, payment_ids, settled_by, created_at
		FROM commission_settlements
		WHERE id = $1
	`

	s := &Settlement{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.OwnerAccountID,
		&s.CommissionAmount,
		pq.Array(&s.PaymentIDs),
		&s.SettledBy,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	return s, nil
}

// ListByOwner retrieves an owner's settlements, newest first
func (r *Repository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Settlement, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM commission_settlements WHERE owner_account_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count settlements: %w", err)
	}

	query := `
		SELECT id, owner_account_id, commission_amount, payment_ids, settled_by, created_at
		FROM commission_settlements
		WHERE owner_account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	settlements := []*Settlement{}
	for rows.Next() {
		s := &Settlement{}
		if err := rows.Scan(
			&s.ID,
			&s.OwnerAccountID,
			&s.CommissionAmount,
			pq.Array(&s.PaymentIDs),
			&s.SettledBy,
			&s.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, s)
	}

	return settlements, total, rows.Err()
}
