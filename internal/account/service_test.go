package account

import (
	"context"
	"errors"
	"testing"

	"github.com/fkhayef/parkwise/internal/apperr"
)

type brokenStore struct{ MemoryStore }

func (*brokenStore) GetByID(ctx context.Context, id string) (*Account, error) {
	return nil, errors.New("connection reset")
}

func TestGetDisplayInfo(t *testing.T) {
	svc := NewService(NewMemoryStore(
		Account{ID: "muni1", Name: "City Parking Authority", Type: TypeMunicipal},
		Account{ID: "drv1", Name: "Juan", Type: TypeDriver},
	))

	info, err := svc.GetDisplayInfo(context.Background(), "muni1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "City Parking Authority" || info.Type != TypeMunicipal {
		t.Fatalf("unexpected info %+v", info)
	}

	for _, id := range []string{"missing", "drv1"} {
		t.Run(id, func(t *testing.T) {
			if _, err := svc.GetDisplayInfo(context.Background(), id); !errors.Is(err, apperr.ErrLookup) {
				t.Fatalf("expected ErrLookup, got %v", err)
			}
		})
	}
}

func TestGetDisplayInfo_StoreFailureIsLookupError(t *testing.T) {
	svc := NewService(&brokenStore{})

	_, err := svc.GetDisplayInfo(context.Background(), "muni1")
	if !errors.Is(err, apperr.ErrLookup) {
		t.Fatalf("expected ErrLookup, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	svc := NewService(NewMemoryStore())

	a, err := svc.Create(context.Background(), &CreateAccountRequest{ID: "est1", Name: " Mall Parking ", Type: TypeEstablishment})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Name != "Mall Parking" || a.CreatedAt.IsZero() {
		t.Fatalf("unexpected account %+v", a)
	}

	if _, err := svc.Create(context.Background(), &CreateAccountRequest{ID: "est1", Name: "Again", Type: TypeEstablishment}); !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	var vErr *apperr.ValidationError
	if _, err := svc.Create(context.Background(), &CreateAccountRequest{ID: "x", Name: "X", Type: "Operator"}); !errors.As(err, &vErr) || vErr.Field != "account_type" {
		t.Fatalf("expected account_type validation error, got %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := NewService(NewMemoryStore())
	if _, err := svc.GetByID(context.Background(), "nobody"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
