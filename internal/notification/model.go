package notification

import "time"

// Type is what an owner is being told about
type Type string

const (
	TypePaymentReceived   Type = "PAYMENT_RECEIVED"
	TypePaymentRefunded   Type = "PAYMENT_REFUNDED"
	TypeCommissionSettled Type = "COMMISSION_SETTLED"
)

// Notification is one entry in an account's inbox
type Notification struct {
	ID                string    `json:"id"`
	RecipientID       string    `json:"recipient_id"`
	Type              Type      `json:"type"`
	Message           string    `json:"message"`
	IsRead            bool      `json:"is_read"`
	RelatedEntityType string    `json:"related_entity_type,omitempty"` // PAYMENT or SETTLEMENT
	RelatedEntityID   string    `json:"related_entity_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
