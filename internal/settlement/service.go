package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/payment"
	"github.com/fkhayef/parkwise/pkg/rabbitmq"
)

// ErrNothingToSettle is returned when an owner has no collected commissions
var ErrNothingToSettle = fmt.Errorf("no collected commissions to settle: %w", apperr.ErrInvalidTransition)

// Ledger is the part of the payment store settlement reads
type Ledger interface {
	QueryByOwner(ctx context.Context, ownerID string) ([]*payment.Payment, error)
}

// SettledEvent is published after a settlement is recorded
type SettledEvent struct {
	SettlementID     string `json:"settlement_id"`
	OwnerAccountID   string `json:"owner_account_id"`
	CommissionAmount string `json:"commission_amount"`
	PaymentCount     int    `json:"payment_count"`
}

// Service handles settlement business logic
type Service struct {
	store     Store
	ledger    Ledger
	publisher rabbitmq.Publisher
	exchange  string
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService creates a new settlement service
func NewService(store Store, ledger Ledger, publisher rabbitmq.Publisher, exchange string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = &rabbitmq.EventProducerFallback{Logger: logger}
	}
	return &Service{
		store:     store,
		ledger:    ledger,
		publisher: publisher,
		exchange:  exchange,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func collected(p *payment.Payment) bool {
	return p.PaymentStatus == payment.StatusCompleted && p.CommissionStatus == payment.CommissionCollected
}

// GetOutstanding returns the collected commission not yet settled for an owner
func (s *Service) GetOutstanding(ctx context.Context, ownerID string) (*Outstanding, error) {
	payments, err := s.ledger.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Persistence("query owner payments", err)
	}

	out := &Outstanding{OwnerAccountID: ownerID, CommissionAmount: decimal.Zero}
	for _, p := range payments {
		if collected(p) {
			out.CommissionAmount = out.CommissionAmount.Add(p.CommissionAmount)
			out.PaymentCount++
		}
	}
	return out, nil
}

// SettleOwner moves every collected commission of the owner to Paid and
// records them as one settlement. Either both happen or neither does.
func (s *Service) SettleOwner(ctx context.Context, ownerID, settledBy string) (*Settlement, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperr.Invalid("owner_account_id", "is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settlement := &Settlement{
		ID:               s.newID(),
		OwnerAccountID:   ownerID,
		CommissionAmount: decimal.Zero,
		PaymentIDs:       []string{},
		SettledBy:        settledBy,
		CreatedAt:        s.now().UTC(),
	}
	if err := s.store.Settle(ctx, settlement); err != nil {
		s.logger.Error("failed to record settlement",
			zap.String("settlement_id", settlement.ID),
			zap.String("owner_account_id", ownerID),
			zap.Error(err),
		)
		return nil, apperr.Persistence("record settlement", err)
	}
	if len(settlement.PaymentIDs) == 0 {
		return nil, ErrNothingToSettle
	}

	s.logger.Info("commissions settled",
		zap.String("settlement_id", settlement.ID),
		zap.String("owner_account_id", ownerID),
		zap.String("commission_amount", settlement.CommissionAmount.StringFixed(2)),
		zap.Int("payments", len(settlement.PaymentIDs)),
	)
	if err := s.publisher.Publish(ctx, s.exchange, rabbitmq.CommissionSettled, SettledEvent{
		SettlementID:     settlement.ID,
		OwnerAccountID:   ownerID,
		CommissionAmount: settlement.CommissionAmount.StringFixed(2),
		PaymentCount:     len(settlement.PaymentIDs),
	}); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("routing_key", rabbitmq.CommissionSettled),
			zap.Error(err),
		)
	}

	return settlement, nil
}

// GetByID retrieves a settlement by its ID
func (s *Service) GetByID(ctx context.Context, id string) (*Settlement, error) {
	settlement, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get settlement", err)
	}
	if settlement == nil {
		return nil, apperr.NotFound("settlement", id)
	}
	return settlement, nil
}

// ListByOwner retrieves an owner's settlements with pagination, newest first
func (s *Service) ListByOwner(ctx context.Context, ownerID string, page, perPage int) ([]*Settlement, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	settlements, total, err := s.store.ListByOwner(ctx, ownerID, perPage, offset)
	if err != nil {
		return nil, 0, apperr.Persistence("list settlements", err)
	}
	return settlements, total, nil
}
