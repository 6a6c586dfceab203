package commission

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// DefaultRate is the platform's cut of every parking payment (10%)
var DefaultRate = decimal.RequireFromString("0.10")

// Tolerance is the absolute difference accepted by Verify
var Tolerance = decimal.RequireFromString("0.01")

var (
	ErrRateOutOfRange = errors.New("commission rate must be between 0 and 1 (exclusive)")
	ErrNegativeAmount = fmt.Errorf("gross amount cannot be negative: %w", apperr.ErrInvalidAmount)
	ErrMismatch       = errors.New("commission split does not match gross amount and rate")
)

// Breakdown is the result of applying the commission rate to a gross amount
type Breakdown struct {
	GrossAmount      decimal.Decimal `json:"gross_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
}

// Calculator splits gross amounts into commission and net at a fixed rate
type Calculator struct {
	rate decimal.Decimal
}

// NewCalculator creates a calculator for the given rate
func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if !rate.IsPositive() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, ErrRateOutOfRange
	}
	return &Calculator{rate: rate}, nil
}

// Rate returns the configured commission rate
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// Calculate returns the commission and net amounts for gross.
// Commission is rounded to cents; net is whatever remains, so
// commission + net always equals gross exactly.
func (c *Calculator) Calculate(gross decimal.Decimal) (Breakdown, error) {
	if gross.IsNegative() {
		return Breakdown{}, ErrNegativeAmount
	}

	commissionAmount := roundToCents(gross.Mul(c.rate))
	return Breakdown{
		GrossAmount:      gross,
		CommissionRate:   c.rate,
		CommissionAmount: commissionAmount,
		NetAmount:        gross.Sub(commissionAmount),
	}, nil
}

// Verify reports whether a stored split matches what rate would produce for
// gross, within Tolerance.
func Verify(rate, gross, commissionAmount, netAmount decimal.Decimal) bool {
	expectedCommission := gross.Mul(rate)
	expectedNet := gross.Sub(expectedCommission)

	return commissionAmount.Sub(expectedCommission).Abs().LessThan(Tolerance) &&
		netAmount.Sub(expectedNet).Abs().LessThan(Tolerance)
}

// WholeCents reports whether v has no fraction of a cent
func WholeCents(v decimal.Decimal) bool {
	return v.Equal(v.Round(2))
}

// roundToCents rounds half away from zero to 2 decimal places
func roundToCents(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
