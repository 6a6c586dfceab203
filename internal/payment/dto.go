package payment

import (
	"github.com/shopspring/decimal"
)

// ProcessPaymentRequest represents the request body for recording a payment
type ProcessPaymentRequest struct {
	InvoiceID      string          `json:"invoice_id" validate:"required"`
	DriverID       string          `json:"driver_id" validate:"required"`
	ParkingSlotID  string          `json:"parking_slot_id" validate:"required"`
	OwnerAccountID string          `json:"owner_account_id" validate:"required"`
	GrossAmount    decimal.Decimal `json:"gross_amount" validate:"required,gt=0" swaggertype:"string" example:"100.00"`
	PaymentMethod  Method          `json:"payment_method" validate:"required,oneof=GCash 'Credit Card' Prepaid"`
	TransactionID  string          `json:"transaction_id" validate:"required"`
}

// RefundRequest represents the request body for refunding a payment
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0" swaggertype:"string" example:"50.00"`
	Reason string          `json:"reason,omitempty"`
}

// PaymentResponse represents the response for a single payment
type PaymentResponse struct {
	ID                    string           `json:"id"`
	InvoiceID             string           `json:"invoice_id"`
	DriverID              string           `json:"driver_id"`
	ParkingSlotID         string           `json:"parking_slot_id"`
	OwnerAccountID        string           `json:"owner_account_id"`
	GrossAmount           string           `json:"gross_amount"`
	CommissionRate        string           `json:"commission_rate"`
	CommissionAmount      string           `json:"commission_amount"`
	NetAmount             string           `json:"net_amount"`
	PaymentMethod         Method           `json:"payment_method"`
	PaymentStatus         Status           `json:"payment_status"`
	TransactionID         string           `json:"transaction_id"`
	CommissionStatus      CommissionStatus `json:"commission_status"`
	CommissionCollectedAt *string          `json:"commission_collected_at,omitempty"`
	CreatedAt             string           `json:"created_at"`
	UpdatedAt             string           `json:"updated_at"`
}

// CommissionPreviewResponse is the result of a commission estimate
type CommissionPreviewResponse struct {
	GrossAmount      string `json:"gross_amount"`
	CommissionRate   string `json:"commission_rate"`
	CommissionAmount string `json:"commission_amount"`
	NetAmount        string `json:"net_amount"`
}

// RefundResponse represents a recorded refund
type RefundResponse struct {
	ID                 string `json:"id"`
	PaymentID          string `json:"payment_id"`
	Amount             string `json:"amount"`
	CommissionReversed string `json:"commission_reversed"`
	NetReversed        string `json:"net_reversed"`
	Reason             string `json:"reason"`
	CreatedAt          string `json:"created_at"`
}

// OwnerSummaryResponse is an owner's revenue over the current period
type OwnerSummaryResponse struct {
	OwnerAccountID   string `json:"owner_account_id"`
	Period           string `json:"period"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	TotalGross       string `json:"total_gross_revenue"`
	TotalNet         string `json:"total_net_revenue"`
	TotalCommissions string `json:"total_commissions"`
	TransactionCount int    `json:"transaction_count"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// ToInput converts the request into service input
func (r *ProcessPaymentRequest) ToInput() Input {
	return Input{
		InvoiceID:      r.InvoiceID,
		DriverID:       r.DriverID,
		ParkingSlotID:  r.ParkingSlotID,
		OwnerAccountID: r.OwnerAccountID,
		GrossAmount:    r.GrossAmount,
		PaymentMethod:  r.PaymentMethod,
		TransactionID:  r.TransactionID,
	}
}

// ToResponse converts a Payment model to a PaymentResponse DTO
func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:               p.ID,
		InvoiceID:        p.InvoiceID,
		DriverID:         p.DriverID,
		ParkingSlotID:    p.ParkingSlotID,
		OwnerAccountID:   p.OwnerAccountID,
		GrossAmount:      p.GrossAmount.StringFixed(2),
		CommissionRate:   p.CommissionRate.String(),
		CommissionAmount: p.CommissionAmount.StringFixed(2),
		NetAmount:        p.NetAmount.StringFixed(2),
		PaymentMethod:    p.PaymentMethod,
		PaymentStatus:    p.PaymentStatus,
		TransactionID:    p.TransactionID,
		CommissionStatus: p.CommissionStatus,
		CreatedAt:        p.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:        p.UpdatedAt.UTC().Format(timeLayout),
	}
	if p.CommissionCollectedAt != nil {
		collected := p.CommissionCollectedAt.UTC().Format(timeLayout)
		resp.CommissionCollectedAt = &collected
	}
	return resp
}

// ToResponse converts a Refund model to a RefundResponse DTO
func (r *Refund) ToResponse() *RefundResponse {
	return &RefundResponse{
		ID:                 r.ID,
		PaymentID:          r.PaymentID,
		Amount:             r.Amount.StringFixed(2),
		CommissionReversed: r.CommissionReversed.StringFixed(2),
		NetReversed:        r.NetReversed.StringFixed(2),
		Reason:             r.Reason,
		CreatedAt:          r.CreatedAt.UTC().Format(timeLayout),
	}
}

// ToResponse converts an OwnerSummary to its DTO
func (s *OwnerSummary) ToResponse() *OwnerSummaryResponse {
	return &OwnerSummaryResponse{
		OwnerAccountID:   s.OwnerAccountID,
		Period:           s.Period,
		StartDate:        s.StartDate.UTC().Format(timeLayout),
		EndDate:          s.EndDate.UTC().Format(timeLayout),
		TotalGross:       s.TotalGross.StringFixed(2),
		TotalNet:         s.TotalNet.StringFixed(2),
		TotalCommissions: s.TotalCommissions.StringFixed(2),
		TransactionCount: s.TransactionCount,
	}
}
