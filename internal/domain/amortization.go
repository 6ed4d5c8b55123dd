package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Amortization is the result of an EMI computation.
type Amortization struct {
	// Installment is the fixed monthly payment, rounded to the nearest whole
	// currency unit.
	Installment decimal.Decimal
	// TotalPayable is Installment * termMonths. Because the installment is
	// rounded first, this is an installment-rounded total rather than the
	// exact closed-form figure.
	TotalPayable decimal.Decimal
}

// ComputeAmortization computes the reducing-balance annuity installment:
//
//	installment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// monthlyRatePercent is the rate PER MONTH expressed as a percentage
// (2.5 means 2.5% per month). Callers holding an annual rate must divide by
// 12 before calling; the unit is deliberately explicit in the name because
// the two were historically conflated.
//
// A zero rate yields an even split installment = P / n with an exact total of
// P, skipping the rounding step so principal is recovered exactly.
func ComputeAmortization(principal, monthlyRatePercent decimal.Decimal, termMonths int) (Amortization, error) {
	if termMonths <= 0 {
		return Amortization{}, ErrInvalidTerm
	}

	if principal.LessThanOrEqual(decimal.Zero) {
		return Amortization{}, ErrInvalidAmount
	}

	if monthlyRatePercent.IsNegative() {
		return Amortization{}, ErrInvalidRate
	}

	n := decimal.NewFromInt(int64(termMonths))

	if monthlyRatePercent.IsZero() {
		return Amortization{
			Installment:  principal.Div(n),
			TotalPayable: principal,
		}, nil
	}

	// The power term is computed in float64; monetary arithmetic stays in
	// decimal.
	r := monthlyRatePercent.InexactFloat64() / 100
	factor := math.Pow(1+r, float64(termMonths))
	raw := principal.InexactFloat64() * r * factor / (factor - 1)

	installment := decimal.NewFromFloat(raw).Round(0)

	return Amortization{
		Installment:  installment,
		TotalPayable: installment.Mul(n),
	}, nil
}
