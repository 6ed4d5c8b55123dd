package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// SubmitLoanRequest represents a request to submit a loan application.
type SubmitLoanRequest struct {
	Title              string          `json:"title"`
	Category           string          `json:"category"`
	Principal          decimal.Decimal `json:"principal"`
	MonthlyRatePercent decimal.Decimal `json:"monthly_rate_percent"`
	TermMonths         int             `json:"term_months"`
	StudentID          *string         `json:"student_id,omitempty"`
}

// ToUseCaseInput converts to use case input. The owner comes from the
// authenticated caller, never from the body.
func (r *SubmitLoanRequest) ToUseCaseInput(userID string) usecase.SubmitLoanInput {
	return usecase.SubmitLoanInput{
		UserID:             userID,
		StudentID:          r.StudentID,
		Title:              r.Title,
		Category:           r.Category,
		Principal:          r.Principal,
		MonthlyRatePercent: r.MonthlyRatePercent,
		TermMonths:         r.TermMonths,
	}
}

// RepaymentRequest represents a repayment against a loan.
type RepaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// OverrideStatusRequest represents an admin status change.
type OverrideStatusRequest struct {
	Status domain.LoanStatus `json:"status"`
}

// WithdrawRequest represents a ledger withdrawal.
type WithdrawRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	StudentID   string          `json:"student_id,omitempty"`
}

// Scope returns the ledger scope the withdrawal targets.
func (r *WithdrawRequest) Scope() domain.LedgerScope {
	return domain.LedgerScope{UserID: r.UserID, StudentID: r.StudentID}
}

// DepositRequest represents a capital inflow.
type DepositRequest struct {
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	UserID    string          `json:"user_id,omitempty"`
	StudentID string          `json:"student_id,omitempty"`
}

// Scope returns the ledger scope the deposit targets.
func (r *DepositRequest) Scope() domain.LedgerScope {
	return domain.LedgerScope{UserID: r.UserID, StudentID: r.StudentID}
}

// RegisterRequest represents a user registration.
type RegisterRequest struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
