package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

// LoanResponse represents a loan in API responses. Remaining balance,
// progress and interest are derived from the stored figures on the way out.
type LoanResponse struct {
	ID                 string            `json:"id"`
	Reference          string            `json:"reference"`
	UserID             string            `json:"user_id"`
	StudentID          *string           `json:"student_id,omitempty"`
	PartnerID          *string           `json:"partner_id,omitempty"`
	Title              string            `json:"title"`
	Category           string            `json:"category"`
	Principal          decimal.Decimal   `json:"principal"`
	TotalWithInterest  decimal.Decimal   `json:"total_with_interest"`
	TotalAmount        decimal.Decimal   `json:"total_amount"`
	PaidAmount         decimal.Decimal   `json:"paid_amount"`
	MonthlyPayment     decimal.Decimal   `json:"monthly_payment"`
	MonthlyRatePercent decimal.Decimal   `json:"monthly_rate_percent"`
	PeriodMonths       int               `json:"period_months"`
	PayoffDate         time.Time         `json:"payoff_date"`
	DisbursementDate   *time.Time        `json:"disbursement_date,omitempty"`
	NextPaymentDate    *time.Time        `json:"next_payment_date,omitempty"`
	Status             domain.LoanStatus `json:"status"`
	RemainingBalance   decimal.Decimal   `json:"remaining_balance"`
	TotalInterest      decimal.Decimal   `json:"total_interest"`
	Progress           int               `json:"progress"`
	Version            int64             `json:"version"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// LoanFromDomain converts a domain loan to a response.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	return &LoanResponse{
		ID:                 l.ID,
		Reference:          l.Reference,
		UserID:             l.UserID,
		StudentID:          l.StudentID,
		PartnerID:          l.PartnerID,
		Title:              l.Title,
		Category:           l.Category,
		Principal:          l.PrincipalRequested,
		TotalWithInterest:  l.TotalWithInterest,
		TotalAmount:        l.TotalAmount,
		PaidAmount:         l.PaidAmount,
		MonthlyPayment:     l.MonthlyPayment,
		MonthlyRatePercent: l.MonthlyRatePercent,
		PeriodMonths:       l.PeriodMonths,
		PayoffDate:         l.PayoffDate,
		DisbursementDate:   l.DisbursementDate,
		NextPaymentDate:    l.NextPaymentDate(),
		Status:             l.Status,
		RemainingBalance:   l.RemainingBalance(),
		TotalInterest:      l.TotalInterest(),
		Progress:           l.Progress(),
		Version:            l.Version,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
}

// LoansFromDomain converts domain loans to responses.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// ListLoansResponse is one page of loans plus pagination metadata.
type ListLoansResponse struct {
	Loans  []*LoanResponse `json:"loans"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// RepaymentResponse is the post-repayment view of the loan.
type RepaymentResponse struct {
	Loan             *LoanResponse        `json:"loan"`
	Entry            *LedgerEntryResponse `json:"entry"`
	RemainingBalance decimal.Decimal      `json:"remaining_balance"`
	Completed        bool                 `json:"completed"`
}

// RepaymentFromResult converts a use case result to a response.
func RepaymentFromResult(r *usecase.RepaymentResult) *RepaymentResponse {
	return &RepaymentResponse{
		Loan:             LoanFromDomain(r.Loan),
		Entry:            LedgerEntryFromDomain(r.Entry),
		RemainingBalance: r.RemainingBalance,
		Completed:        r.Completed,
	}
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID             string                `json:"id"`
	Reference      string                `json:"reference"`
	UserID         string                `json:"user_id,omitempty"`
	StudentID      *string               `json:"student_id,omitempty"`
	LoanID         *string               `json:"loan_id,omitempty"`
	Direction      domain.EntryDirection `json:"direction"`
	Amount         decimal.Decimal       `json:"amount"`
	Description    string                `json:"description"`
	SubDescription string                `json:"sub_description,omitempty"`
	Status         domain.EntryStatus    `json:"status"`
	CreatedAt      time.Time             `json:"created_at"`
}

// LedgerEntryFromDomain converts a domain entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:             e.ID,
		Reference:      e.Reference,
		UserID:         e.UserID,
		StudentID:      e.StudentID,
		LoanID:         e.LoanID,
		Direction:      e.Direction,
		Amount:         e.Amount,
		Description:    e.Description,
		SubDescription: e.SubDescription,
		Status:         e.Status,
		CreatedAt:      e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts domain entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// ListLedgerResponse is one page of ledger entries.
type ListLedgerResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// BalanceResponse is a scope balance.
type BalanceResponse struct {
	Scope   string          `json:"scope"`
	Balance decimal.Decimal `json:"balance"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

// UserFromDomain converts a domain user to a response.
func UserFromDomain(u *domain.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

// LoginResponse carries a token and the authenticated user.
type LoginResponse struct {
	Token string        `json:"token"`
	User  *UserResponse `json:"user"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
