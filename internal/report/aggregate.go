package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/payment"
)

// totals is the report-level sum over a payment snapshot
type totals struct {
	gross      decimal.Decimal
	commission decimal.Decimal
	net        decimal.Decimal
	count      int
}

// reportable reports whether a payment moved money and belongs in a report.
// Refunded payments stay in the window they were made; the refund is its own record.
func reportable(p *payment.Payment) bool {
	return p.PaymentStatus == payment.StatusCompleted || p.PaymentStatus == payment.StatusRefunded
}

// aggregate sums payments overall and per owner. The breakdown is ordered by
// owner account id and carries no display info yet.
func aggregate(payments []*payment.Payment) (totals, []OwnerBreakdown) {
	sum := totals{gross: decimal.Zero, commission: decimal.Zero, net: decimal.Zero}
	byOwner := make(map[string]*OwnerBreakdown)

	for _, p := range payments {
		if !reportable(p) {
			continue
		}
		sum.gross = sum.gross.Add(p.GrossAmount)
		sum.commission = sum.commission.Add(p.CommissionAmount)
		sum.net = sum.net.Add(p.NetAmount)
		sum.count++

		entry, ok := byOwner[p.OwnerAccountID]
		if !ok {
			entry = &OwnerBreakdown{
				OwnerAccountID:   p.OwnerAccountID,
				GrossRevenue:     decimal.Zero,
				CommissionAmount: decimal.Zero,
				NetRevenue:       decimal.Zero,
			}
			byOwner[p.OwnerAccountID] = entry
		}
		entry.GrossRevenue = entry.GrossRevenue.Add(p.GrossAmount)
		entry.CommissionAmount = entry.CommissionAmount.Add(p.CommissionAmount)
		entry.NetRevenue = entry.NetRevenue.Add(p.NetAmount)
		entry.TransactionCount++
	}

	breakdown := make([]OwnerBreakdown, 0, len(byOwner))
	for _, entry := range byOwner {
		breakdown = append(breakdown, *entry)
	}
	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].OwnerAccountID < breakdown[j].OwnerAccountID
	})

	return sum, breakdown
}

// growthPercent is (this-last)/last*100 rounded to one decimal, or 0 when last is 0
func growthPercent(this, last decimal.Decimal) decimal.Decimal {
	if last.IsZero() {
		return decimal.Zero
	}
	return this.Sub(last).Div(last).Mul(decimal.NewFromInt(100)).Round(1)
}
