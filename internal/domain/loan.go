package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan application.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "Pending"
	LoanStatusReviewing LoanStatus = "Reviewing"
	LoanStatusApproved  LoanStatus = "Approved"
	LoanStatusActive    LoanStatus = "Active"
	LoanStatusDisbursed LoanStatus = "Disbursed"
	LoanStatusRejected  LoanStatus = "Rejected"
	LoanStatusClosed    LoanStatus = "Closed"
	LoanStatusCompleted LoanStatus = "Completed"
)

// completionEpsilon absorbs float drift carried in from legacy data: a loan
// whose remaining balance is within half a currency unit of zero is settled.
var completionEpsilon = decimal.NewFromFloat(0.5)

// loanTransitions is the set of allowed status transitions. Anything not
// listed here is rejected, including transitions out of terminal states.
var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:   {LoanStatusReviewing, LoanStatusApproved, LoanStatusRejected, LoanStatusDisbursed},
	LoanStatusReviewing: {LoanStatusApproved, LoanStatusRejected, LoanStatusDisbursed},
	LoanStatusApproved:  {LoanStatusActive, LoanStatusDisbursed, LoanStatusClosed},
	LoanStatusActive:    {LoanStatusCompleted, LoanStatusClosed},
	LoanStatusDisbursed: {LoanStatusCompleted, LoanStatusClosed},
}

// IsValid reports whether s is a known loan status.
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusReviewing, LoanStatusApproved, LoanStatusActive,
		LoanStatusDisbursed, LoanStatusRejected, LoanStatusClosed, LoanStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leads out of s.
func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0 && s.IsValid()
}

// CanTransitionTo reports whether s -> target is an allowed transition.
func (s LoanStatus) CanTransitionTo(target LoanStatus) bool {
	for _, t := range loanTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Loan represents a single loan application and its repayment state.
//
// The financial snapshot (PrincipalRequested, TotalWithInterest,
// MonthlyPayment, MonthlyRatePercent, PeriodMonths) is immutable once the loan
// is disbursed. TotalAmount and PaidAmount are the live repayment state and
// always satisfy TotalAmount == max(0, TotalWithInterest - PaidAmount).
type Loan struct {
	ID        string // ULID primary key
	Reference string // human-readable, e.g. LN-482917
	UserID    string
	StudentID *string // anchor to one application when a user holds several loans
	PartnerID *string

	Title    string
	Category string

	PrincipalRequested decimal.Decimal
	TotalWithInterest  decimal.Decimal
	TotalAmount        decimal.Decimal // live remaining balance
	PaidAmount         decimal.Decimal
	MonthlyPayment     decimal.Decimal
	MonthlyRatePercent decimal.Decimal
	PeriodMonths       int

	PayoffDate       time.Time
	DisbursementDate *time.Time

	Status  LoanStatus
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanBeFunded reports whether the loan may still be disbursed.
func (l *Loan) CanBeFunded() bool {
	switch l.Status {
	case LoanStatusPending, LoanStatusReviewing, LoanStatusApproved:
		return true
	}
	return false
}

// CanBeRepaid reports whether the loan accepts repayments in its current state.
func (l *Loan) CanBeRepaid() bool {
	return l.Status == LoanStatusDisbursed || l.Status == LoanStatusActive
}

// ApplyPayment applies a repayment to the live balance. When the remaining
// balance falls within completionEpsilon of zero the loan is marked Completed
// and PaidAmount is clamped to TotalWithInterest exactly, so the displayed
// balance is a clean zero.
func (l *Loan) ApplyPayment(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if l.Status == LoanStatusCompleted {
		return ErrLoanAlreadyRepaid
	}

	if !l.CanBeRepaid() {
		return ErrLoanNotRepayable
	}

	l.PaidAmount = l.PaidAmount.Add(amount)

	remaining := l.TotalWithInterest.Sub(l.PaidAmount)
	if remaining.LessThanOrEqual(completionEpsilon) {
		l.PaidAmount = l.TotalWithInterest
		l.TotalAmount = decimal.Zero
		l.Status = LoanStatusCompleted

		return nil
	}

	l.TotalAmount = remaining

	return nil
}

// MarkDisbursed records the funding decision: the snapshot fields are set from
// the authoritative server-side recomputation and the loan moves to Disbursed.
func (l *Loan) MarkDisbursed(installment, totalPayable decimal.Decimal, now time.Time) error {
	switch l.Status {
	case LoanStatusDisbursed, LoanStatusActive, LoanStatusCompleted:
		return ErrLoanAlreadyFunded
	}

	if !l.CanBeFunded() {
		return ErrInvalidTransition
	}

	l.MonthlyPayment = installment
	l.TotalWithInterest = totalPayable
	l.TotalAmount = totalPayable.Sub(l.PaidAmount)
	l.Status = LoanStatusDisbursed
	l.DisbursementDate = &now

	return nil
}

// TransitionTo applies an administrative status change, validated against the
// transition table.
func (l *Loan) TransitionTo(target LoanStatus, now time.Time) error {
	if !target.IsValid() {
		return ErrInvalidStatus
	}

	if !l.Status.CanTransitionTo(target) {
		return ErrInvalidTransition
	}

	if target == LoanStatusDisbursed && l.DisbursementDate == nil {
		l.DisbursementDate = &now
	}

	l.Status = target

	return nil
}

// RemainingBalance returns max(0, TotalWithInterest - PaidAmount).
func (l *Loan) RemainingBalance() decimal.Decimal {
	balance := l.TotalWithInterest.Sub(l.PaidAmount)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// Progress returns repayment progress as a whole percentage, capped at 100.
func (l *Loan) Progress() int {
	if l.TotalWithInterest.IsZero() {
		return 0
	}

	pct := l.PaidAmount.Div(l.TotalWithInterest).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct > 100 {
		return 100
	}

	return int(pct)
}

// TotalInterest returns the interest portion of the debt snapshot.
func (l *Loan) TotalInterest() decimal.Decimal {
	return l.TotalWithInterest.Sub(l.PrincipalRequested)
}

// NextPaymentDate returns one month after disbursement, or nil for loans that
// have not been disbursed.
func (l *Loan) NextPaymentDate() *time.Time {
	if l.DisbursementDate == nil {
		return nil
	}

	next := l.DisbursementDate.AddDate(0, 1, 0)

	return &next
}
