package domain

import "errors"

var (
	// Loan errors
	ErrLoanNotFound         = errors.New("loan not found")
	ErrDuplicatePendingLoan = errors.New("a pending application already exists for this category")
	ErrLoanAlreadyFunded    = errors.New("loan has already been funded")
	ErrLoanAlreadyRepaid    = errors.New("loan is already fully repaid")
	ErrLoanNotRepayable     = errors.New("loan does not accept repayments in its current status")
	ErrInvalidTransition    = errors.New("status transition is not allowed")
	ErrInvalidStatus        = errors.New("unknown loan status")
	ErrStaleLoan            = errors.New("loan was modified concurrently, retry with a fresh read")

	// Amortization errors
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidTerm   = errors.New("term must be at least one month")
	ErrInvalidRate   = errors.New("interest rate cannot be negative")

	// Ledger errors
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Authorization errors
	ErrPartnerNotLinked = errors.New("partner is not linked to the loan owner")
	ErrStudentNotFound  = errors.New("student record not found")
	ErrUserNotFound     = errors.New("user not found")
)
