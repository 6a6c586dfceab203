package settlement

import "time"

// CreateSettlementRequest represents the request to settle an owner's collected commissions
type CreateSettlementRequest struct {
	OwnerAccountID string `json:"owner_account_id" validate:"required"`
}

// SettlementResponse represents the response for a settlement
type SettlementResponse struct {
	ID               string   `json:"id"`
	OwnerAccountID   string   `json:"owner_account_id"`
	CommissionAmount string   `json:"commission_amount"`
	PaymentCount     int      `json:"payment_count"`
	PaymentIDs       []string `json:"payment_ids"`
	SettledBy        string   `json:"settled_by"`
	CreatedAt        string   `json:"created_at"`
}

// OutstandingResponse represents the unsettled commission for an owner
type OutstandingResponse struct {
	OwnerAccountID   string `json:"owner_account_id"`
	CommissionAmount string `json:"commission_amount"`
	PaymentCount     int    `json:"payment_count"`
}

// ToResponse converts a Settlement model to a SettlementResponse DTO
func (s *Settlement) ToResponse() *SettlementResponse {
	return &SettlementResponse{
		ID:               s.ID,
		OwnerAccountID:   s.OwnerAccountID,
		CommissionAmount: s.CommissionAmount.StringFixed(2),
		PaymentCount:     len(s.PaymentIDs),
		PaymentIDs:       s.PaymentIDs,
		SettledBy:        s.SettledBy,
		CreatedAt:        s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts Outstanding to its DTO
func (o *Outstanding) ToResponse() *OutstandingResponse {
	return &OutstandingResponse{
		OwnerAccountID:   o.OwnerAccountID,
		CommissionAmount: o.CommissionAmount.StringFixed(2),
		PaymentCount:     o.PaymentCount,
	}
}
