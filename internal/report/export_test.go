package report

import (
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/account"
	"github.com/fkhayef/parkwise/internal/apperr"
	"github.com/fkhayef/parkwise/internal/period"
)

func sampleReport() *CommissionReport {
	return &CommissionReport{
		ID:                    "rep-1",
		ReportPeriod:          period.Weekly,
		StartDate:             time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC),
		EndDate:               time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
		TotalGrossRevenue:     decimal.RequireFromString("1300"),
		TotalCommissionAmount: decimal.RequireFromString("130"),
		TotalNetRevenue:       decimal.RequireFromString("1170"),
		TransactionCount:      4,
		OwnerBreakdown: []OwnerBreakdown{
			{
				OwnerAccountID:   "A",
				OwnerName:        "Alpha Mall",
				OwnerType:        account.TypeEstablishment,
				GrossRevenue:     decimal.RequireFromString("300"),
				CommissionAmount: decimal.RequireFromString("30"),
				NetRevenue:       decimal.RequireFromString("270"),
				TransactionCount: 1,
			},
			{
				OwnerAccountID:   "B",
				OwnerName:        "Bravo, \"The\" Garage",
				OwnerType:        account.TypeEstablishment,
				GrossRevenue:     decimal.RequireFromString("1000"),
				CommissionAmount: decimal.RequireFromString("100"),
				NetRevenue:       decimal.RequireFromString("900"),
				TransactionCount: 3,
			},
		},
		ReportStatus: StatusGenerated,
		GeneratedAt:  time.Date(2026, 10, 18, 1, 0, 0, 0, time.UTC),
	}
}

func TestRenderCSV_RoundTrip(t *testing.T) {
	out, err := RenderCSV(sampleReport(), time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}

	// csv.Reader skips the blank separator line
	want := [][]string{
		{"Commission Report", "WEEKLY"},
		{"Period", "2026-10-11", "2026-10-18"},
		{"Total Gross Revenue", "1300.00"},
		{"Total Commission", "130.00"},
		{"Total Net Revenue", "1170.00"},
		{"Total Transactions", "4"},
		breakdownHeader,
		{"A", "Alpha Mall", "Establishment", "300.00", "30.00", "270.00", "1"},
		{"B", "Bravo, \"The\" Garage", "Establishment", "1000.00", "100.00", "900.00", "3"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d:\n%s", len(want), len(records), out)
	}
	for i := range want {
		if strings.Join(records[i], "|") != strings.Join(want[i], "|") {
			t.Errorf("record %d: expected %q, got %q", i, want[i], records[i])
		}
	}

	if !strings.Contains(out, "\n\nOwner ID,") {
		t.Errorf("expected a blank line before the breakdown header:\n%s", out)
	}
	if !strings.Contains(out, `"Bravo, ""The"" Garage"`) {
		t.Errorf("expected owner name to be quoted:\n%s", out)
	}
}

func TestRenderCSV_EmptyBreakdown(t *testing.T) {
	report := sampleReport()
	report.OwnerBreakdown = nil

	out, err := RenderCSV(report, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(out, strings.Join(breakdownHeader, ",")+"\n") {
		t.Fatalf("expected output to end with the breakdown header:\n%s", out)
	}
}

func TestFormatBound(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)

	tests := []struct {
		name string
		in   time.Time
		loc  *time.Location
		want string
	}{
		{"utc midnight", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.UTC, "2026-10-01"},
		{"local midnight", time.Date(2026, 9, 30, 16, 0, 0, 0, time.UTC), manila, "2026-10-01"},
		{"mid-day", time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC), time.UTC, "2026-10-01T09:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatBound(tt.in, tt.loc); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestExportCommissionReport(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "B", "100", testNow)

	report, err := f.svc.GenerateCommissionReport(context.Background(), period.Daily, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := f.svc.ExportCommissionReport(context.Background(), report.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Total Commission,10.00") {
		t.Errorf("expected commission total in export:\n%s", out)
	}

	if _, err := f.svc.ExportCommissionReport(context.Background(), "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
