package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// Store persists accounts
type Store interface {
	Create(ctx context.Context, a *Account) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]*Account, int, error)
}

// Repository handles account data persistence
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new account repository with database dependency injected
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account into the database
func (r *Repository) Create(ctx context.Context, a *Account) (*Account, error) {
	query := `
		INSERT INTO accounts (id, name, account_type)
		VALUES ($1, $2, $3)
		RETURNING id, name, account_type, created_at
	`

	created := &Account{}
	err := r.db.QueryRowContext(ctx, query, a.ID, a.Name, a.Type).Scan(
		&created.ID,
		&created.Name,
		&created.Type,
		&created.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("account %q: %w", a.ID, apperr.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return created, nil
}

// GetByID retrieves an account by its ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Account, error) {
	query := `
		SELECT id, name, account_type, created_at
		FROM accounts
		WHERE id = $1
	`

	a := &Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&a.Name,
		&a.Type,
		&a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return a, nil
}

// List retrieves accounts with pagination
func (r *Repository) List(ctx context.Context, limit, offset int) ([]*Account, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	query := `
		SELECT id, name, account_type, created_at
		FROM accounts
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []*Account{}
	for rows.Next() {
		a := &Account{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	return accounts, total, rows.Err()
}
