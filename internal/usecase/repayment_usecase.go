package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// RepaymentUseCase applies repayments to loans. Every repayment is one
// database transaction: the loan row is locked, mutated, the Debit ledger
// entry and the outbox event are inserted, and only then does the transaction
// commit. Transient serialization failures are retried.
type RepaymentUseCase struct {
	txManager  TransactionManager
	loanRepo   LoanRepository
	ledgerRepo LedgerRepository
	outbox     OutboxRepository
	idGen      IDGenerator
	retrier    Retrier
	cache      Cache
}

// NewRepaymentUseCase creates a new RepaymentUseCase.
func NewRepaymentUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	ledgerRepo LedgerRepository,
	outbox OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	cache Cache,
) *RepaymentUseCase {
	return &RepaymentUseCase{
		txManager:  txManager,
		loanRepo:   loanRepo,
		ledgerRepo: ledgerRepo,
		outbox:     outbox,
		idGen:      idGen,
		retrier:    retrier,
		cache:      cache,
	}
}

// ApplyRepaymentInput represents one repayment against a loan.
type ApplyRepaymentInput struct {
	LoanID  string
	ActorID string
	Amount  decimal.Decimal
}

// RepaymentResult is the post-repayment view of the loan.
type RepaymentResult struct {
	Loan             *domain.Loan
	Entry            *domain.LedgerEntry
	RemainingBalance decimal.Decimal
	Completed        bool
}

// ApplyRepayment records a repayment. The loan's live balance moves, a Debit
// entry is appended to the ledger, and when the remaining balance reaches
// zero (within the completion epsilon) the loan flips to Completed.
func (uc *RepaymentUseCase) ApplyRepayment(ctx context.Context, input ApplyRepaymentInput) (*RepaymentResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	var result *RepaymentResult

	err := uc.retrier.Retry(ctx, func() error {
		var opErr error
		result, opErr = uc.applyOnce(ctx, input)

		return opErr
	})
	if err != nil {
		return nil, err
	}

	uc.invalidateBalances(ctx, result.Entry)

	return result, nil
}

func (uc *RepaymentUseCase) applyOnce(ctx context.Context, input ApplyRepaymentInput) (*RepaymentResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	loan, err := uc.loanRepo.GetByIDForUpdate(ctx, tx, input.LoanID)
	if err != nil {
		return nil, err
	}

	wasCompleted := loan.Status == domain.LoanStatusCompleted

	if err := loan.ApplyPayment(input.Amount); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	loan.UpdatedAt = now

	if err := uc.loanRepo.Update(ctx, tx, loan); err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:             uc.idGen.Generate(),
		Reference:      uc.idGen.PaymentReference(),
		UserID:         loan.UserID,
		StudentID:      loan.StudentID,
		LoanID:         &loan.ID,
		Direction:      domain.DirectionDebit,
		Amount:         input.Amount,
		Description:    "Loan repayment",
		SubDescription: loan.Reference,
		Status:         domain.EntryStatusCompleted,
		CreatedAt:      now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.writeEvents(ctx, tx, loan, input, now, wasCompleted); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &RepaymentResult{
		Loan:             loan,
		Entry:            entry,
		RemainingBalance: loan.TotalAmount,
		Completed:        loan.Status == domain.LoanStatusCompleted,
	}, nil
}

func (uc *RepaymentUseCase) writeEvents(
	ctx context.Context,
	tx Transaction,
	loan *domain.Loan,
	input ApplyRepaymentInput,
	now time.Time,
	wasCompleted bool,
) error {
	received := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeRepaymentReceived,
		Payload: domain.MarshalState(domain.RepaymentReceivedEvent{
			LoanID:    loan.ID,
			Reference: loan.Reference,
			UserID:    loan.UserID,
			Amount:    input.Amount.String(),
			Remaining: loan.TotalAmount.String(),
		}),
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, tx, received); err != nil {
		return err
	}

	if wasCompleted || loan.Status != domain.LoanStatusCompleted {
		return nil
	}

	completed := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   loan.ID,
		AggregateType: domain.AggregateTypeLoan,
		EventType:     domain.EventTypeLoanCompleted,
		Payload: domain.MarshalState(domain.LoanCompletedEvent{
			LoanID:    loan.ID,
			Reference: loan.Reference,
			UserID:    loan.UserID,
			TotalPaid: loan.PaidAmount.String(),
		}),
		CreatedAt: now,
	}

	return uc.outbox.Create(ctx, tx, completed)
}

// invalidateBalances drops every cached balance the entry can affect. Cache
// misses are recomputed from the ledger, so failures here are non-fatal.
func (uc *RepaymentUseCase) invalidateBalances(ctx context.Context, entry *domain.LedgerEntry) {
	if uc.cache == nil || entry == nil {
		return
	}

	invalidateScopes(ctx, uc.cache, entry)
}

// invalidateScopes removes the cached balances for the global scope, the
// user scope and, when present, the student-anchored scope of an entry.
func invalidateScopes(ctx context.Context, cache Cache, entry *domain.LedgerEntry) {
	scopes := []domain.LedgerScope{
		{},
		{UserID: entry.UserID},
	}

	if entry.StudentID != nil {
		scopes = append(scopes, domain.LedgerScope{UserID: entry.UserID, StudentID: *entry.StudentID})
	}

	for _, scope := range scopes {
		_ = cache.Delete(ctx, scope.Key())
	}
}
