package domain

import "time"

// Event types
const (
	EventTypeLoanSubmitted     = "loan.submitted"
	EventTypeLoanFunded        = "loan.funded"
	EventTypeRepaymentReceived = "loan.repayment_received"
	EventTypeLoanCompleted     = "loan.completed"
	EventTypeStatusOverridden  = "loan.status_overridden"
	EventTypeFundsWithdrawn    = "ledger.funds_withdrawn"
	EventTypeCapitalDeposited  = "ledger.capital_deposited"
)

// Aggregate types
const (
	AggregateTypeLoan   = "loan"
	AggregateTypeLedger = "ledger"
)

// OutboxEvent represents an event to be published. Events are written in the
// same transaction as the state change they describe.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LoanSubmittedEvent payload
type LoanSubmittedEvent struct {
	LoanID    string `json:"loan_id"`
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	Category  string `json:"category"`
	Principal string `json:"principal"`
	Term      int    `json:"term_months"`
}

// LoanFundedEvent payload
type LoanFundedEvent struct {
	LoanID      string `json:"loan_id"`
	Reference   string `json:"reference"`
	UserID      string `json:"user_id"`
	PartnerID   string `json:"partner_id"`
	Principal   string `json:"principal"`
	Installment string `json:"installment"`
}

// RepaymentReceivedEvent payload
type RepaymentReceivedEvent struct {
	LoanID    string `json:"loan_id"`
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	Amount    string `json:"amount"`
	Remaining string `json:"remaining"`
}

// LoanCompletedEvent payload
type LoanCompletedEvent struct {
	LoanID    string `json:"loan_id"`
	Reference string `json:"reference"`
	UserID    string `json:"user_id"`
	TotalPaid string `json:"total_paid"`
}

// FundsWithdrawnEvent payload
type FundsWithdrawnEvent struct {
	EntryID string `json:"entry_id"`
	Amount  string `json:"amount"`
	ActorID string `json:"actor_id"`
}

// CapitalDepositedEvent payload
type CapitalDepositedEvent struct {
	EntryID string `json:"entry_id"`
	Name    string `json:"name"`
	Amount  string `json:"amount"`
}
