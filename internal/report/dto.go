package report

import "time"

// GenerateReportRequest represents the request body for generating a report.
// Dates are optional and only used when both are supplied.
type GenerateReportRequest struct {
	Period    string `json:"period" validate:"required,oneof=daily weekly monthly" example:"monthly"`
	StartDate string `json:"start_date,omitempty" example:"2026-10-01"`
	EndDate   string `json:"end_date,omitempty" example:"2026-11-01"`
}

// CollectCommissionsRequest represents the request body for collecting commissions
type CollectCommissionsRequest struct {
	PaymentIDs []string `json:"payment_ids" validate:"required,min=1"`
}

// OwnerBreakdownResponse is one owner row of a report
type OwnerBreakdownResponse struct {
	OwnerAccountID   string `json:"owner_account_id"`
	OwnerName        string `json:"owner_name"`
	OwnerType        string `json:"owner_type"`
	GrossRevenue     string `json:"gross_revenue"`
	CommissionAmount string `json:"commission_amount"`
	NetRevenue       string `json:"net_revenue"`
	TransactionCount int    `json:"transaction_count"`
}

// ReportResponse represents the response for a single commission report
type ReportResponse struct {
	ID                    string                    `json:"id"`
	ReportPeriod          string                    `json:"report_period"`
	StartDate             string                    `json:"start_date"`
	EndDate               string                    `json:"end_date"`
	TotalGrossRevenue     string                    `json:"total_gross_revenue"`
	TotalCommissionAmount string                    `json:"total_commission_amount"`
	TotalNetRevenue       string                    `json:"total_net_revenue"`
	TransactionCount      int                       `json:"transaction_count"`
	OwnerBreakdown        []*OwnerBreakdownResponse `json:"owner_breakdown"`
	ReportStatus          Status                    `json:"report_status"`
	GeneratedAt           string                    `json:"generated_at"`
	ReviewedAt            *string                   `json:"reviewed_at,omitempty"`
	ProcessedAt           *string                   `json:"processed_at,omitempty"`
}

// SummaryResponse is the commission dashboard summary
type SummaryResponse struct {
	TotalCommissionsCollected string `json:"total_commissions_collected"`
	PendingCommissions        string `json:"pending_commissions"`
	ThisMonthCommissions      string `json:"this_month_commissions"`
	LastMonthCommissions      string `json:"last_month_commissions"`
	CommissionGrowth          string `json:"commission_growth"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// ToResponse converts a CommissionReport model to a ReportResponse DTO
func (r *CommissionReport) ToResponse() *ReportResponse {
	owners := make([]*OwnerBreakdownResponse, len(r.OwnerBreakdown))
	for i, o := range r.OwnerBreakdown {
		owners[i] = &OwnerBreakdownResponse{
			OwnerAccountID:   o.OwnerAccountID,
			OwnerName:        o.OwnerName,
			OwnerType:        string(o.OwnerType),
			GrossRevenue:     o.GrossRevenue.StringFixed(2),
			CommissionAmount: o.CommissionAmount.StringFixed(2),
			NetRevenue:       o.NetRevenue.StringFixed(2),
			TransactionCount: o.TransactionCount,
		}
	}

	return &ReportResponse{
		ID:                    r.ID,
		ReportPeriod:          string(r.ReportPeriod),
		StartDate:             r.StartDate.Format(time.RFC3339),
		EndDate:               r.EndDate.Format(time.RFC3339),
		TotalGrossRevenue:     r.TotalGrossRevenue.StringFixed(2),
		TotalCommissionAmount: r.TotalCommissionAmount.StringFixed(2),
		TotalNetRevenue:       r.TotalNetRevenue.StringFixed(2),
		TransactionCount:      r.TransactionCount,
		OwnerBreakdown:        owners,
		ReportStatus:          r.ReportStatus,
		GeneratedAt:           r.GeneratedAt.UTC().Format(time.RFC3339),
		ReviewedAt:            formatTime(r.ReviewedAt),
		ProcessedAt:           formatTime(r.ProcessedAt),
	}
}

// ToResponse converts a Summary to its DTO
func (s *Summary) ToResponse() *SummaryResponse {
	return &SummaryResponse{
		TotalCommissionsCollected: s.TotalCommissionsCollected.StringFixed(2),
		PendingCommissions:        s.PendingCommissions.StringFixed(2),
		ThisMonthCommissions:      s.ThisMonthCommissions.StringFixed(2),
		LastMonthCommissions:      s.LastMonthCommissions.StringFixed(2),
		CommissionGrowth:          s.CommissionGrowth.StringFixed(1),
	}
}
