package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method is how the driver paid
type Method string

const (
	MethodGCash      Method = "GCash"
	MethodCreditCard Method = "Credit Card"
	MethodPrepaid    Method = "Prepaid"
)

// Valid reports whether m is one of the accepted payment methods
func (m Method) Valid() bool {
	switch m {
	case MethodGCash, MethodCreditCard, MethodPrepaid:
		return true
	}
	return false
}

// Status represents the processor-side state of a payment
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
	StatusRefunded  Status = "Refunded"
)

// CommissionStatus tracks the platform's cut of a payment
type CommissionStatus string

const (
	CommissionPending   CommissionStatus = "Pending"
	CommissionCollected CommissionStatus = "Collected"
	CommissionPaid      CommissionStatus = "Paid"
)

// StatusField names the independently transitioning status columns
type StatusField string

const (
	FieldPaymentStatus    StatusField = "payment_status"
	FieldCommissionStatus StatusField = "commission_status"
)

var paymentTransitions = map[Status][]Status{
	StatusPending:   {StatusCompleted, StatusFailed},
	StatusCompleted: {StatusRefunded},
}

var commissionTransitions = map[CommissionStatus][]CommissionStatus{
	CommissionPending:   {CommissionCollected},
	CommissionCollected: {CommissionPaid},
}

// CanTransition reports whether field may move from one value to another
func CanTransition(field StatusField, from, to string) bool {
	switch field {
	case FieldPaymentStatus:
		for _, next := range paymentTransitions[Status(from)] {
			if string(next) == to {
				return true
			}
		}
	case FieldCommissionStatus:
		for _, next := range commissionTransitions[CommissionStatus(from)] {
			if string(next) == to {
				return true
			}
		}
	}
	return false
}

// Payment is one completed parking transaction between a driver and a slot
// owner. Amount fields are fixed at creation.
type Payment struct {
	ID                    string           `json:"id"`
	InvoiceID             string           `json:"invoice_id"`
	DriverID              string           `json:"driver_id"`
	ParkingSlotID         string           `json:"parking_slot_id"`
	OwnerAccountID        string           `json:"owner_account_id"`
	GrossAmount           decimal.Decimal  `json:"gross_amount"`
	CommissionRate        decimal.Decimal  `json:"commission_rate"`
	CommissionAmount      decimal.Decimal  `json:"commission_amount"`
	NetAmount             decimal.Decimal  `json:"net_amount"`
	PaymentMethod         Method           `json:"payment_method"`
	PaymentStatus         Status           `json:"payment_status"`
	TransactionID         string           `json:"transaction_id"`
	CommissionStatus      CommissionStatus `json:"commission_status"`
	CommissionCollectedAt *time.Time       `json:"commission_collected_at,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// Refund is an append-only reversal recorded against a completed payment
type Refund struct {
	ID                 string          `json:"id"`
	PaymentID          string          `json:"payment_id"`
	Amount             decimal.Decimal `json:"amount"`
	CommissionReversed decimal.Decimal `json:"commission_reversed"`
	NetReversed        decimal.Decimal `json:"net_reversed"`
	Reason             string          `json:"reason"`
	CreatedAt          time.Time       `json:"created_at"`
}

// CommissionTotals sums commission amounts per commission status
type CommissionTotals struct {
	Pending   decimal.Decimal
	Collected decimal.Decimal
	Paid      decimal.Decimal
}

func newCommissionTotals() CommissionTotals {
	return CommissionTotals{Pending: decimal.Zero, Collected: decimal.Zero, Paid: decimal.Zero}
}

func (t *CommissionTotals) add(status CommissionStatus, amount decimal.Decimal) {
	switch status {
	case CommissionPending:
		t.Pending = t.Pending.Add(amount)
	case CommissionCollected:
		t.Collected = t.Collected.Add(amount)
	case CommissionPaid:
		t.Paid = t.Paid.Add(amount)
	}
}

// OwnerSummary aggregates an owner's payments over a window
type OwnerSummary struct {
	OwnerAccountID   string          `json:"owner_account_id"`
	Period           string          `json:"period"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	TotalGross       decimal.Decimal `json:"total_gross_revenue"`
	TotalNet         decimal.Decimal `json:"total_net_revenue"`
	TotalCommissions decimal.Decimal `json:"total_commissions"`
	TransactionCount int             `json:"transaction_count"`
}
