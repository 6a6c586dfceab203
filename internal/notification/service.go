package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// ErrNotRecipient is returned when a caller touches another account's notification
var ErrNotRecipient = errors.New("not the recipient of this notification")

// Related entity kinds
const (
	EntityPayment    = "PAYMENT"
	EntitySettlement = "SETTLEMENT"
)

// Service handles notification business logic
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new notification service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a new unread notification for recipientID
func (s *Service) Create(ctx context.Context, recipientID string, typ Type, message, entityType, entityID string) (*Notification, error) {
	if recipientID == "" {
		return nil, apperr.Invalid("recipient_id", "recipient is required")
	}

	n := &Notification{
		ID:                uuid.NewString(),
		RecipientID:       recipientID,
		Type:              typ,
		Message:           message,
		RelatedEntityType: entityType,
		RelatedEntityID:   entityID,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.Create(ctx, n); err != nil {
		return nil, apperr.Persistence("create notification", err)
	}
	return n, nil
}

// NotifyPaymentReceived tells an owner a parking payment landed
func (s *Service) NotifyPaymentReceived(ctx context.Context, ownerID, paymentID, net string) (*Notification, error) {
	return s.Create(ctx, ownerID, TypePaymentReceived,
		fmt.Sprintf("Payment received: %s credited to your account", net),
		EntityPayment, paymentID)
}

// NotifyPaymentRefunded tells an owner a payment was refunded
func (s *Service) NotifyPaymentRefunded(ctx context.Context, ownerID, paymentID, amount string) (*Notification, error) {
	return s.Create(ctx, ownerID, TypePaymentRefunded,
		fmt.Sprintf("Payment refunded: %s returned to the customer", amount),
		EntityPayment, paymentID)
}

// NotifyCommissionSettled tells an owner their collected commission was remitted
func (s *Service) NotifyCommissionSettled(ctx context.Context, ownerID, settlementID, amount string, payments int) (*Notification, error) {
	return s.Create(ctx, ownerID, TypeCommissionSettled,
		fmt.Sprintf("Commission of %s settled across %d payments", amount, payments),
		EntitySettlement, settlementID)
}

// GetByID retrieves a notification the caller owns
func (s *Service) GetByID(ctx context.Context, id, recipientID string) (*Notification, error) {
	n, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Persistence("get notification", err)
	}
	if n == nil {
		return nil, apperr.NotFound("notification", id)
	}
	if n.RecipientID != recipientID {
		return nil, ErrNotRecipient
	}
	return n, nil
}

// ListByRecipientID retrieves an account's notifications
func (s *Service) ListByRecipientID(ctx context.Context, recipientID string, page, perPage int, unreadOnly bool) ([]*Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	offset := (page - 1) * perPage
	notifications, total, err := s.store.ListByRecipientID(ctx, recipientID, perPage, offset, unreadOnly)
	if err != nil {
		return nil, 0, apperr.Persistence("list notifications", err)
	}
	return notifications, total, nil
}

// MarkAsRead marks a notification as read
func (s *Service) MarkAsRead(ctx context.Context, id, recipientID string) error {
	if _, err := s.GetByID(ctx, id, recipientID); err != nil {
		return err
	}
	if err := s.store.MarkAsRead(ctx, id); err != nil {
		return apperr.Persistence("mark notification read", err)
	}
	return nil
}

// MarkAllAsRead marks all notifications as read for an account
func (s *Service) MarkAllAsRead(ctx context.Context, recipientID string) error {
	if err := s.store.MarkAllAsRead(ctx, recipientID); err != nil {
		return apperr.Persistence("mark all notifications read", err)
	}
	return nil
}

// GetUnreadCount returns the count of unread notifications for an account
func (s *Service) GetUnreadCount(ctx context.Context, recipientID string) (int, error) {
	count, err := s.store.GetUnreadCount(ctx, recipientID)
	if err != nil {
		return 0, apperr.Persistence("count unread notifications", err)
	}
	return count, nil
}
