package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		category    string
		expectError bool
	}{
		{"Education", false},
		{"Business", false},
		{"Recruit by Choice", false},
		{"  Car  ", false},
		{"", true},
		{"Crypto", true},
	}

	for _, tt := range tests {
		err := ValidateCategory(tt.category)
		if tt.expectError && err == nil {
			t.Errorf("ValidateCategory(%q): expected error, got nil", tt.category)
		}
		if !tt.expectError && err != nil {
			t.Errorf("ValidateCategory(%q): unexpected error: %v", tt.category, err)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name        string
		amount      decimal.Decimal
		expectedErr error
	}{
		{"valid", decimal.NewFromInt(10500), nil},
		{"zero", decimal.Zero, ErrInvalidAmount},
		{"negative", decimal.NewFromInt(-5), ErrInvalidAmount},
		{"too large", decimal.NewFromInt(2_000_000_000), ErrAmountTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.expectedErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expectedErr) {
				t.Errorf("error = %v, want %v", err, tt.expectedErr)
			}
		})
	}
}

func TestValidateTerm(t *testing.T) {
	if err := ValidateTerm(12); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateTerm(0); !errors.Is(err, ErrInvalidTerm) {
		t.Errorf("error = %v, want ErrInvalidTerm", err)
	}

	if err := ValidateTerm(481); !errors.Is(err, ErrTermTooLong) {
		t.Errorf("error = %v, want ErrTermTooLong", err)
	}
}

func TestValidateRate(t *testing.T) {
	if err := ValidateRate(decimal.NewFromFloat(2.5)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := ValidateRate(decimal.Zero); err != nil {
		t.Errorf("zero rate should be valid, got %v", err)
	}

	if err := ValidateRate(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("error = %v, want ErrInvalidRate", err)
	}

	if err := ValidateRate(decimal.NewFromInt(250)); !errors.Is(err, ErrRateTooHigh) {
		t.Errorf("error = %v, want ErrRateTooHigh", err)
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Errorf("got (%d, %d), want (50, 0)", limit, offset)
	}

	limit, offset = ValidatePagination(5000, 10)
	if limit != 1000 || offset != 10 {
		t.Errorf("got (%d, %d), want (1000, 10)", limit, offset)
	}
}
