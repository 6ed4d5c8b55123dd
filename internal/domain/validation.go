package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCategory = errors.New("invalid loan category")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall  = errors.New("amount below minimum allowed")
	ErrTermTooLong     = errors.New("term exceeds maximum allowed")
	ErrRateTooHigh     = errors.New("interest rate exceeds maximum allowed")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
)

// Validation constants
const (
	MaxLoanAmount     = "1000000000" // 1 billion
	MinLoanAmount     = "0.01"
	MaxTermMonths     = 480
	MaxMonthlyRatePct = "100"
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

// Loan categories offered by the brokerage.
var validCategories = map[string]bool{
	"Education":         true,
	"Primary":           true,
	"Business":          true,
	"Recruit by Choice": true,
	"Car":               true,
	"Home":              true,
	"Personal":          true,
	"Other":             true,
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateCategory validates a loan category.
func ValidateCategory(category string) error {
	if !validCategories[strings.TrimSpace(category)] {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}

	return nil
}

// ValidateAmount validates a monetary amount for loans and ledger entries.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinLoanAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinLoanAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxLoanAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxLoanAmount)
	}

	return nil
}

// ValidateTerm validates a loan term in months.
func ValidateTerm(termMonths int) error {
	if termMonths <= 0 {
		return ErrInvalidTerm
	}

	if termMonths > MaxTermMonths {
		return fmt.Errorf("%w: maximum term is %d months", ErrTermTooLong, MaxTermMonths)
	}

	return nil
}

// ValidateRate validates a monthly interest rate percentage.
func ValidateRate(monthlyRatePercent decimal.Decimal) error {
	if monthlyRatePercent.IsNegative() {
		return ErrInvalidRate
	}

	maxRate, _ := decimal.NewFromString(MaxMonthlyRatePct)
	if monthlyRatePercent.GreaterThan(maxRate) {
		return fmt.Errorf("%w: maximum rate is %s%%", ErrRateTooHigh, MaxMonthlyRatePct)
	}

	return nil
}

// ValidateEmail validates email format.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password strength.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)

	if !hasUpper || !hasLower || !hasNumber {
		return fmt.Errorf("%w: must contain uppercase, lowercase, and numbers", ErrPasswordTooWeak)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
