package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/account"
	"github.com/fkhayef/parkwise/internal/period"
)

// Status is the review state of a commission report
type Status string

const (
	StatusGenerated Status = "Generated"
	StatusReviewed  Status = "Reviewed"
	StatusProcessed Status = "Processed"
)

var statusTransitions = map[Status]Status{
	StatusGenerated: StatusReviewed,
	StatusReviewed:  StatusProcessed,
}

// CanTransition reports whether a report may move from one status to another.
// Reports only move forward one step at a time.
func CanTransition(from, to Status) bool {
	next, ok := statusTransitions[from]
	return ok && next == to
}

// OwnerBreakdown is one owner's share of a report
type OwnerBreakdown struct {
	OwnerAccountID   string          `json:"owner_account_id"`
	OwnerName        string          `json:"owner_name"`
	OwnerType        account.Type    `json:"owner_type"`
	GrossRevenue     decimal.Decimal `json:"gross_revenue"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetRevenue       decimal.Decimal `json:"net_revenue"`
	TransactionCount int             `json:"transaction_count"`
}

// CommissionReport is an immutable aggregation of payments over [StartDate, EndDate).
// Only the status and its timestamps change after creation.
type CommissionReport struct {
	ID                    string           `json:"id"`
	ReportPeriod          period.Period    `json:"report_period"`
	StartDate             time.Time        `json:"start_date"`
	EndDate               time.Time        `json:"end_date"`
	TotalGrossRevenue     decimal.Decimal  `json:"total_gross_revenue"`
	TotalCommissionAmount decimal.Decimal  `json:"total_commission_amount"`
	TotalNetRevenue       decimal.Decimal  `json:"total_net_revenue"`
	TransactionCount      int              `json:"transaction_count"`
	OwnerBreakdown        []OwnerBreakdown `json:"owner_breakdown"`
	ReportStatus          Status           `json:"report_status"`
	GeneratedAt           time.Time        `json:"generated_at"`
	ReviewedAt            *time.Time       `json:"reviewed_at,omitempty"`
	ProcessedAt           *time.Time       `json:"processed_at,omitempty"`
}

// Summary is the lightweight commission dashboard read
type Summary struct {
	TotalCommissionsCollected decimal.Decimal `json:"total_commissions_collected"`
	PendingCommissions        decimal.Decimal `json:"pending_commissions"`
	ThisMonthCommissions      decimal.Decimal `json:"this_month_commissions"`
	LastMonthCommissions      decimal.Decimal `json:"last_month_commissions"`
	CommissionGrowth          decimal.Decimal `json:"commission_growth"`
}

// CollectResult is the outcome of collecting one payment's commission
type CollectResult struct {
	ID        string `json:"id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}
