package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/commission"
	"github.com/fkhayef/parkwise/internal/period"
	"github.com/fkhayef/parkwise/pkg/rabbitmq"
)

// Input is the data needed to record a completed payment
type Input struct {
	InvoiceID      string
	DriverID       string
	ParkingSlotID  string
	OwnerAccountID string
	GrossAmount    decimal.Decimal
	PaymentMethod  Method
	TransactionID  string
}

// ProcessedEvent is published after a payment is recorded
type ProcessedEvent struct {
	PaymentID        string `json:"payment_id"`
	OwnerAccountID   string `json:"owner_account_id"`
	TransactionID    string `json:"transaction_id"`
	GrossAmount      string `json:"gross_amount"`
	CommissionAmount string `json:"commission_amount"`
	NetAmount        string `json:"net_amount"`
	CreatedAt        string `json:"created_at"`
}

// RefundedEvent is published after a refund is recorded
type RefundedEvent struct {
	PaymentID          string `json:"payment_id"`
	OwnerAccountID     string `json:"owner_account_id"`
	RefundID           string `json:"refund_id"`
	Amount             string `json:"amount"`
	CommissionReversed string `json:"commission_reversed"`
}

// Service handles payment business logic
type Service struct {
	store     Store
	calc      *commission.Calculator
	publisher rabbitmq.Publisher
	exchange  string
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new payment service with dependencies injected
func NewService(store Store, calc *commission.Calculator, publisher rabbitmq.Publisher, exchange string, loc *time.Location, logger *zap.Logger) *Service {
	if publisher == nil {
		publisher = &rabbitmq.EventProducerFallback{Logger: logger}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:     store,
		calc:      calc,
		publisher: publisher,
		exchange:  exchange,
		loc:       loc,
		logger:    logger,
		now:       time.Now,
	}
}

// ValidatePaymentData checks every input constraint and reports the first
// offending field.
func (s *Service) ValidatePaymentData(in Input) error {
	required := []struct {
		field string
		value string
	}{
		{"invoice_id", in.InvoiceID},
		{"driver_id", in.DriverID},
		{"parking_slot_id", in.ParkingSlotID},
		{"owner_account_id", in.OwnerAccountID},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return apperr.Invalid(r.field, "is required")
		}
	}

	if !in.GrossAmount.IsPositive() {
		return &apperr.ValidationError{
			Field:   "gross_amount",
			Message: "must be greater than zero",
			Kind:    apperr.ErrInvalidAmount,
		}
	}
	if !commission.WholeCents(in.GrossAmount) {
		return &apperr.ValidationError{
			Field:   "gross_amount",
			Message: "cannot have more than 2 decimal places",
			Kind:    apperr.ErrInvalidAmount,
		}
	}
	if !in.PaymentMethod.Valid() {
		return apperr.Invalid("payment_method", "must be one of GCash, Credit Card, Prepaid")
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return apperr.Invalid("transaction_id", "is required")
	}

	return nil
}

// CalculateCommission previews the split of gross without persisting anything
func (s *Service) CalculateCommission(gross decimal.Decimal) (commission.Breakdown, error) {
	return s.calc.Calculate(gross)
}

// ProcessPayment validates the input, computes the commission and appends a
// Completed payment to the ledger.
func (s *Service) ProcessPayment(ctx context.Context, in Input) (*Payment, error) {
	if err := s.ValidatePaymentData(in); err != nil {
		return nil, err
	}

	breakdown, err := s.calc.Calculate(in.GrossAmount)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &Payment{
		ID:               uuid.NewString(),
		InvoiceID:        in.InvoiceID,
		DriverID:         in.DriverID,
		ParkingSlotID:    in.ParkingSlotID,
		OwnerAccountID:   in.OwnerAccountID,
		GrossAmount:      breakdown.GrossAmount,
		CommissionRate:   breakdown.CommissionRate,
		CommissionAmount: breakdown.CommissionAmount,
		NetAmount:        breakdown.NetAmount,
		PaymentMethod:    in.PaymentMethod,
		PaymentStatus:    StatusCompleted,
		TransactionID:    in.TransactionID,
		CommissionStatus: CommissionPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.Append(ctx, p); err != nil {
		return nil, apperr.Persistence("append payment", err)
	}

	s.logger.Info("payment processed",
		zap.String("payment_id", p.ID),
		zap.String("owner_account_id", p.OwnerAccountID),
		zap.String("gross_amount", p.GrossAmount.StringFixed(2)),
	)
	s.publish(ctx, rabbitmq.PaymentProcessed, ProcessedEvent{
		PaymentID:        p.ID,
		OwnerAccountID:   p.OwnerAccountID,
		TransactionID:    p.TransactionID,
		GrossAmount:      p.GrossAmount.StringFixed(2),
		CommissionAmount: p.CommissionAmount.StringFixed(2),
		NetAmount:        p.NetAmount.StringFixed(2),
		CreatedAt:        p.CreatedAt.Format(timeLayout),
	})

	return p, nil
}

// GetPayment retrieves a payment by ID
func (s *Service) GetPayment(ctx context.Context, id string) (*Payment, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get payment", err)
	}
	if p == nil {
		return nil, apperr.NotFound("payment", id)
	}
	return p, nil
}

// ListOwnerPayments returns an owner's payments, newest first
func (s *Service) ListOwnerPayments(ctx context.Context, ownerID string) ([]*Payment, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Invalid("owner_account_id", "is required")
	}
	payments, err := s.store.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Persistence("query owner payments", err)
	}
	return payments, nil
}

// GetOwnerSummary totals an owner's completed payments in the current window
// of the given period.
func (s *Service) GetOwnerSummary(ctx context.Context, ownerID string, p period.Period) (*OwnerSummary, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Invalid("owner_account_id", "is required")
	}
	window, err := period.Current(p, s.now(), s.loc)
	if err != nil {
		return nil, err
	}

	payments, err := s.store.QueryByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Persistence("query owner payments", err)
	}

	summary := &OwnerSummary{
		OwnerAccountID:   ownerID,
		Period:           string(p),
		StartDate:        window.Start,
		EndDate:          window.End,
		TotalGross:       decimal.Zero,
		TotalNet:         decimal.Zero,
		TotalCommissions: decimal.Zero,
	}
	for _, pay := range payments {
		if pay.PaymentStatus != StatusCompleted || !window.Contains(pay.CreatedAt) {
			continue
		}
		summary.TotalGross = summary.TotalGross.Add(pay.GrossAmount)
		summary.TotalNet = summary.TotalNet.Add(pay.NetAmount)
		summary.TotalCommissions = summary.TotalCommissions.Add(pay.CommissionAmount)
		summary.TransactionCount++
	}

	return summary, nil
}

// RefundPayment records a refund against a completed payment. The payment's
// amounts are left untouched; the refund is a separate ledger entry.
func (s *Service) RefundPayment(ctx context.Context, id string, amount decimal.Decimal, reason string) (*Refund, error) {
	p, err := s.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	if !amount.IsPositive() {
		return nil, &apperr.ValidationError{Field: "amount", Message: "must be greater than zero", Kind: apperr.ErrInvalidAmount}
	}
	if !commission.WholeCents(amount) {
		return nil, &apperr.ValidationError{Field: "amount", Message: "cannot have more than 2 decimal places", Kind: apperr.ErrInvalidAmount}
	}
	if amount.GreaterThan(p.GrossAmount) {
		return nil, &apperr.ValidationError{Field: "amount", Message: "cannot exceed the gross amount", Kind: apperr.ErrInvalidAmount}
	}
	if !CanTransition(FieldPaymentStatus, string(p.PaymentStatus), string(StatusRefunded)) {
		return nil, apperr.Transition(string(FieldPaymentStatus), string(p.PaymentStatus), string(StatusRefunded))
	}

	reversed, err := s.calc.Calculate(amount)
	if err != nil {
		return nil, err
	}

	refund := &Refund{
		ID:                 uuid.NewString(),
		PaymentID:          p.ID,
		Amount:             amount,
		CommissionReversed: reversed.CommissionAmount,
		NetReversed:        reversed.NetAmount,
		Reason:             reason,
		CreatedAt:          s.now().UTC(),
	}
	if err := s.store.AppendRefund(ctx, refund); err != nil {
		return nil, apperr.Persistence("append refund", err)
	}

	s.logger.Info("payment refunded",
		zap.String("payment_id", p.ID),
		zap.String("refund_id", refund.ID),
		zap.String("amount", amount.StringFixed(2)),
	)
	s.publish(ctx, rabbitmq.PaymentRefunded, RefundedEvent{
		PaymentID:          p.ID,
		OwnerAccountID:     p.OwnerAccountID,
		RefundID:           refund.ID,
		Amount:             amount.StringFixed(2),
		CommissionReversed: refund.CommissionReversed.StringFixed(2),
	})

	return refund, nil
}

func (s *Service) publish(ctx context.Context, routingKey string, body interface{}) {
	if err := s.publisher.Publish(ctx, s.exchange, routingKey, body); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
