package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// Lookup resolves owner display info for reports
type Lookup interface {
	GetDisplayInfo(ctx context.Context, ownerID string) (DisplayInfo, error)
}

// Service handles account business logic
type Service struct {
	store Store
}

// NewService creates a new account service with store dependency injected
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registers a new account
func (s *Service) Create(ctx context.Context, req *CreateAccountRequest) (*Account, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, apperr.Invalid("id", "is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Invalid("name", "is required")
	}
	if !req.Type.Valid() {
		return nil, apperr.Invalid("account_type", "must be one of Driver, Municipal, Establishment, Admin")
	}

	a, err := s.store.Create(ctx, &Account{ID: req.ID, Name: strings.TrimSpace(req.Name), Type: req.Type})
	if err != nil {
		return nil, apperr.Persistence("create account", err)
	}
	return a, nil
}

// GetByID retrieves an account by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Account, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get account", err)
	}
	if a == nil {
		return nil, apperr.NotFound("account", id)
	}
	return a, nil
}

// List retrieves accounts with pagination
func (s *Service) List(ctx context.Context, page, perPage int) ([]*Account, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	accounts, total, err := s.store.List(ctx, perPage, offset)
	if err != nil {
		return nil, 0, apperr.Persistence("list accounts", err)
	}
	return accounts, total, nil
}

// GetDisplayInfo returns the name and type of a slot owner. Every failure,
// including a missing or non-owner account, is an ErrLookup error.
func (s *Service) GetDisplayInfo(ctx context.Context, ownerID string) (DisplayInfo, error) {
	a, err := s.store.GetByID(ctx, ownerID)
	if err != nil {
		return DisplayInfo{}, fmt.Errorf("owner %q: %w: %w", ownerID, apperr.ErrLookup, err)
	}
	if a == nil {
		return DisplayInfo{}, fmt.Errorf("owner %q does not exist: %w", ownerID, apperr.ErrLookup)
	}
	if !a.Type.OwnsSlots() {
		return DisplayInfo{}, fmt.Errorf("account %q is a %s, not a slot owner: %w", ownerID, a.Type, apperr.ErrLookup)
	}
	return DisplayInfo{Name: a.Name, Type: a.Type}, nil
}
