package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var breakdownHeader = []string{
	"Owner ID", "Owner Name", "Owner Type",
	"Gross Revenue", "Commission Amount", "Net Revenue", "Transaction Count",
}

// ExportCommissionReport renders a stored report as CSV
func (s *Service) ExportCommissionReport(ctx context.Context, id string) (string, error) {
	report, err := s.GetReport(ctx, id)
	if err != nil {
		return "", err
	}
	return RenderCSV(report, s.loc)
}

// RenderCSV writes a header block with the period and totals, a blank line,
// then one row per owner. Quoting follows RFC 4180.
func RenderCSV(r *CommissionReport, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"Commission Report", strings.ToUpper(string(r.ReportPeriod))},
		{"Period", formatBound(r.StartDate, loc), formatBound(r.EndDate, loc)},
		{"Total Gross Revenue", r.TotalGrossRevenue.StringFixed(2)},
		{"Total Commission", r.TotalCommissionAmount.StringFixed(2)},
		{"Total Net Revenue", r.TotalNetRevenue.StringFixed(2)},
		{"Total Transactions", strconv.Itoa(r.TransactionCount)},
	}
	if err := w.WriteAll(records); err != nil {
		return "", fmt.Errorf("failed to write report header: %w", err)
	}

	w.Flush()
	buf.WriteString("\n")

	if err := w.Write(breakdownHeader); err != nil {
		return "", fmt.Errorf("failed to write breakdown header: %w", err)
	}
	for _, o := range r.OwnerBreakdown {
		if err := w.Write([]string{
			o.OwnerAccountID,
			o.OwnerName,
			string(o.OwnerType),
			o.GrossRevenue.StringFixed(2),
			o.CommissionAmount.StringFixed(2),
			o.NetRevenue.StringFixed(2),
			strconv.Itoa(o.TransactionCount),
		}); err != nil {
			return "", fmt.Errorf("failed to write owner %s: %w", o.OwnerAccountID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to flush report: %w", err)
	}
	return buf.String(), nil
}

// formatBound prints local midnights as plain dates and anything else as RFC 3339
func formatBound(t time.Time, loc *time.Location) string {
	local := t.In(loc)
	if local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0 {
		return local.Format("2006-01-02")
	}
	return local.Format(time.RFC3339)
}
