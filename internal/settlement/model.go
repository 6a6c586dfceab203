package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settlement records one remittance of collected commissions for an owner.
// Every payment it lists moved from Collected to Paid.
type Settlement struct {
	ID               string          `json:"id"`
	OwnerAccountID   string          `json:"owner_account_id"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	PaymentIDs       []string        `json:"payment_ids"`
	SettledBy        string          `json:"settled_by"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Outstanding is the collected commission not yet remitted for an owner
type Outstanding struct {
	OwnerAccountID   string          `json:"owner_account_id"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	PaymentCount     int             `json:"payment_count"`
}
