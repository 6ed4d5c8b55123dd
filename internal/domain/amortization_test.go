package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeAmortization_ClosedForm(t *testing.T) {
	// P=10000, 2.5% monthly, 12 months: the installment must match the
	// closed-form annuity formula after rounding to a whole unit.
	principal := decimal.NewFromInt(10000)
	rate := decimal.NewFromFloat(2.5)

	got, err := ComputeAmortization(principal, rate, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := 0.025
	factor := math.Pow(1+r, 12)
	want := math.Round(10000 * r * factor / (factor - 1))

	if got.Installment.InexactFloat64() != want {
		t.Errorf("Installment = %s, want %v", got.Installment, want)
	}

	wantTotal := want * 12
	if got.TotalPayable.InexactFloat64() != wantTotal {
		t.Errorf("TotalPayable = %s, want %v", got.TotalPayable, wantTotal)
	}
}

func TestComputeAmortization_ZeroRate(t *testing.T) {
	principal := decimal.NewFromInt(12000)

	got, err := ComputeAmortization(principal, decimal.Zero, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Installment.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Installment = %s, want 1000", got.Installment)
	}

	if !got.TotalPayable.Equal(principal) {
		t.Errorf("TotalPayable = %s, want %s", got.TotalPayable, principal)
	}
}

func TestComputeAmortization_ZeroRateUnevenSplit(t *testing.T) {
	// Zero-rate split is exact, not installment-rounded, so principal is
	// recovered exactly even when it does not divide evenly.
	principal := decimal.NewFromInt(10000)

	got, err := ComputeAmortization(principal, decimal.Zero, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.TotalPayable.Equal(principal) {
		t.Errorf("TotalPayable = %s, want %s", got.TotalPayable, principal)
	}
}

func TestComputeAmortization_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		principal   decimal.Decimal
		rate        decimal.Decimal
		term        int
		expectedErr error
	}{
		{
			name:        "zero term",
			principal:   decimal.NewFromInt(1000),
			rate:        decimal.NewFromFloat(2.5),
			term:        0,
			expectedErr: ErrInvalidTerm,
		},
		{
			name:        "negative term",
			principal:   decimal.NewFromInt(1000),
			rate:        decimal.NewFromFloat(2.5),
			term:        -3,
			expectedErr: ErrInvalidTerm,
		},
		{
			name:        "zero principal",
			principal:   decimal.Zero,
			rate:        decimal.NewFromFloat(2.5),
			term:        12,
			expectedErr: ErrInvalidAmount,
		},
		{
			name:        "negative rate",
			principal:   decimal.NewFromInt(1000),
			rate:        decimal.NewFromFloat(-1),
			term:        12,
			expectedErr: ErrInvalidRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeAmortization(tt.principal, tt.rate, tt.term)
			if err != tt.expectedErr {
				t.Errorf("error = %v, want %v", err, tt.expectedErr)
			}
		})
	}
}

func TestComputeAmortization_RoundedTotalNotExactInterest(t *testing.T) {
	// The total is installment-rounded by design: round(installment) * n,
	// not the unrounded closed-form total.
	got, err := ComputeAmortization(decimal.NewFromInt(10500), decimal.NewFromFloat(2.5), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.TotalPayable.Equal(got.Installment.Mul(decimal.NewFromInt(12))) {
		t.Errorf("TotalPayable %s is not Installment*12 (%s)", got.TotalPayable, got.Installment)
	}
}
