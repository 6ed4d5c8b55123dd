package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// LoanUseCase handles loan application lifecycle: submission, queries and
// administrative status changes. Money movement lives in the funding and
// repayment use cases.
type LoanUseCase struct {
	txManager TransactionManager
	loanRepo  LoanRepository
	outbox    OutboxRepository
	auditRepo AuditRepository
	idGen     IDGenerator
}

// NewLoanUseCase creates a new LoanUseCase.
func NewLoanUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	outbox OutboxRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
) *LoanUseCase {
	return &LoanUseCase{
		txManager: txManager,
		loanRepo:  loanRepo,
		outbox:    outbox,
		auditRepo: auditRepo,
		idGen:     idGen,
	}
}

// SubmitLoanInput represents a new loan application. Any client-supplied
// installment or total is deliberately absent: the debt snapshot is always
// recomputed server-side.
type SubmitLoanInput struct {
	UserID             string
	StudentID          *string
	Title              string
	Category           string
	Principal          decimal.Decimal
	MonthlyRatePercent decimal.Decimal
	TermMonths         int
}

// SubmitLoanRequest validates and persists a new application in Pending
// status, with the debt snapshot computed from the requested principal.
func (uc *LoanUseCase) SubmitLoanRequest(ctx context.Context, input SubmitLoanInput) (*domain.Loan, error) {
	if err := domain.ValidateCategory(input.Category); err != nil {
		return nil, err
	}

	if err := domain.ValidateAmount(input.Principal); err != nil {
		return nil, err
	}

	if err := domain.ValidateTerm(input.TermMonths); err != nil {
		return nil, err
	}

	if err := domain.ValidateRate(input.MonthlyRatePercent); err != nil {
		return nil, err
	}

	// One open application per category per user.
	pending, err := uc.loanRepo.HasPendingByOwnerAndCategory(ctx, input.UserID, input.Category)
	if err != nil {
		return nil, err
	}

	if pending {
		return nil, domain.ErrDuplicatePendingLoan
	}

	am, err := domain.ComputeAmortization(input.Principal, input.MonthlyRatePercent, input.TermMonths)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	loan := &domain.Loan{
		ID:                 uc.idGen.Generate(),
		Reference:          uc.idGen.LoanReference(),
		UserID:             input.UserID,
		StudentID:          input.StudentID,
		Title:              input.Title,
		Category:           input.Category,
		PrincipalRequested: input.Principal,
		TotalWithInterest:  am.TotalPayable,
		TotalAmount:        am.TotalPayable,
		PaidAmount:         decimal.Zero,
		MonthlyPayment:     am.Installment,
		MonthlyRatePercent: input.MonthlyRatePercent,
		PeriodMonths:       input.TermMonths,
		PayoffDate:         now.AddDate(0, input.TermMonths, 0),
		Status:             domain.LoanStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.loanRepo.CreateTx(ctx, tx, loan); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanSubmitted,
		Payload: domain.MarshalState(domain.LoanSubmittedEvent{
			LoanID:    loan.ID,
			Reference: loan.Reference,
			UserID:    loan.UserID,
			Category:  loan.Category,
			Principal: loan.PrincipalRequested.String(),
			Term:      loan.PeriodMonths,
		}),
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return uc.loanRepo.GetByID(ctx, id)
}

// ListLoansResult is one page of loans plus pagination metadata.
type ListLoansResult struct {
	Loans []*domain.Loan
	Total int
}

// ListLoans lists loans across all users, filtered and paginated.
func (uc *LoanUseCase) ListLoans(ctx context.Context, filter LoanFilter) (*ListLoansResult, error) {
	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	loans, total, err := uc.loanRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListLoansResult{Loans: loans, Total: total}, nil
}

// ListUserLoans returns the loan history of one user, most recent first.
func (uc *LoanUseCase) ListUserLoans(ctx context.Context, userID string, limit, offset int) ([]*domain.Loan, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.loanRepo.ListByOwner(ctx, userID, limit, offset)
}

// OverrideStatusInput represents an administrative status change.
type OverrideStatusInput struct {
	LoanID    string
	Target    domain.LoanStatus
	ActorID   string
	RequestID string
}

// OverrideStatus applies an admin status change, validated against the
// transition table. The change, its outbox event and the audit record are
// committed in one transaction.
func (uc *LoanUseCase) OverrideStatus(ctx context.Context, input OverrideStatusInput) (*domain.Loan, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := uc.loanRepo.GetByIDForUpdate(ctx, tx, input.LoanID)
	if err != nil {
		return nil, err
	}

	before := domain.MarshalState(loan)
	now := time.Now().UTC()

	if err := loan.TransitionTo(input.Target, now); err != nil {
		return nil, err
	}

	loan.UpdatedAt = now

	if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeStatusOverridden,
		Payload: domain.MarshalState(map[string]any{
			"loan_id":   loan.ID,
			"reference": loan.Reference,
			"status":    string(loan.Status),
			"actor_id":  input.ActorID,
		}),
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       input.ActorID,
		Action:       string(domain.AuditActionStatusOverride),
		ResourceType: domain.AggregateTypeLoan,
		ResourceID:   loan.ID,
		RequestID:    input.RequestID,
		BeforeState:  before,
		AfterState:   domain.MarshalState(loan),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return loan, nil
}
