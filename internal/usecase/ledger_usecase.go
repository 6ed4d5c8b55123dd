package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// ErrInconsistentLedger is returned when the ledger does not reconcile.
var ErrInconsistentLedger = errors.New("ledger is inconsistent")

// LedgerUseCase serves ledger queries, balances, withdrawals and capital
// deposits.
type LedgerUseCase struct {
	txManager  TransactionManager
	ledgerRepo LedgerRepository
	loanRepo   LoanRepository
	auditRepo  AuditRepository
	outbox     OutboxRepository
	idGen      IDGenerator
	cache      Cache
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	ledgerRepo LedgerRepository,
	loanRepo LoanRepository,
	auditRepo AuditRepository,
	outbox OutboxRepository,
	idGen IDGenerator,
	cache Cache,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:  txManager,
		ledgerRepo: ledgerRepo,
		loanRepo:   loanRepo,
		auditRepo:  auditRepo,
		outbox:     outbox,
		idGen:      idGen,
		cache:      cache,
	}
}

// GetLedger lists entries in a scope, most recent first.
func (uc *LedgerUseCase) GetLedger(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	return uc.ledgerRepo.ListByScope(ctx, scope, limit, offset)
}

// GetBalance returns SUM(credits) - SUM(debits) for a scope. The figure is
// cached briefly; every write in scope invalidates the cached value.
func (uc *LedgerUseCase) GetBalance(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, scope.Key()); err == nil && cached != nil {
			if balance, err := decimal.NewFromString(string(cached)); err == nil {
				return balance, nil
			}
		}
	}

	balance, err := uc.ledgerRepo.SumByScope(ctx, scope)
	if err != nil {
		return decimal.Zero, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, scope.Key(), []byte(balance.String()), BalanceCacheTTL)
	}

	return balance, nil
}

// WithdrawInput represents an admin withdrawal from a ledger scope.
type WithdrawInput struct {
	Scope       domain.LedgerScope
	ActorID     string
	Amount      decimal.Decimal
	Description string
	RequestID   string
}

// WithdrawFunds debits a scope after re-checking its balance under the
// per-scope advisory lock. Two concurrent withdrawals against the same scope
// serialize on the lock, so the balance check and the insert are atomic and
// the scope can never be driven negative.
func (uc *LedgerUseCase) WithdrawFunds(ctx context.Context, input WithdrawInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.ledgerRepo.LockScope(ctx, tx, input.Scope); err != nil {
		return nil, err
	}

	balance, err := uc.ledgerRepo.SumByScopeTx(ctx, tx, input.Scope)
	if err != nil {
		return nil, err
	}

	if balance.LessThan(input.Amount) {
		return nil, domain.ErrInsufficientBalance
	}

	now := time.Now().UTC()

	description := input.Description
	if description == "" {
		description = "Funds withdrawal"
	}

	entry := &domain.LedgerEntry{
		ID:          uc.idGen.Generate(),
		Reference:   uc.idGen.PaymentReference(),
		UserID:      input.Scope.UserID,
		Direction:   domain.DirectionDebit,
		Amount:      input.Amount,
		Description: description,
		Status:      domain.EntryStatusCompleted,
		CreatedAt:   now,
	}

	if input.Scope.StudentID != "" {
		studentID := input.Scope.StudentID
		entry.StudentID = &studentID
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeLedger,
		EventType:     domain.EventTypeFundsWithdrawn,
		Payload: domain.MarshalState(domain.FundsWithdrawnEvent{
			EntryID: entry.ID,
			Amount:  entry.Amount.String(),
			ActorID: input.ActorID,
		}),
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       input.ActorID,
		Action:       string(domain.AuditActionWithdraw),
		ResourceType: domain.AggregateTypeLedger,
		ResourceID:   entry.ID,
		RequestID:    input.RequestID,
		AfterState:   domain.MarshalState(entry),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		invalidateScopes(ctx, uc.cache, entry)
	}

	return entry, nil
}

// DepositInput represents a capital inflow into a ledger scope.
type DepositInput struct {
	Scope     domain.LedgerScope
	ActorID   string
	Name      string
	Amount    decimal.Decimal
	RequestID string
}

// Deposit records a capital inflow as a Credit entry, so the scope's balance
// is fundable before any repayments arrive.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.LedgerEntry, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	entry := &domain.LedgerEntry{
		ID:             uc.idGen.Generate(),
		Reference:      uc.idGen.PaymentReference(),
		UserID:         input.Scope.UserID,
		Direction:      domain.DirectionCredit,
		Amount:         input.Amount,
		Description:    "Capital inflow",
		SubDescription: input.Name,
		Status:         domain.EntryStatusCompleted,
		CreatedAt:      now,
	}

	if input.Scope.StudentID != "" {
		studentID := input.Scope.StudentID
		entry.StudentID = &studentID
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := uc.ledgerRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeLedger,
		EventType:     domain.EventTypeCapitalDeposited,
		Payload: domain.MarshalState(domain.CapitalDepositedEvent{
			EntryID: entry.ID,
			Name:    input.Name,
			Amount:  entry.Amount.String(),
		}),
		CreatedAt: now,
	}

	if err := uc.outbox.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	audit := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		UserID:       input.ActorID,
		Action:       string(domain.AuditActionDeposit),
		ResourceType: domain.AggregateTypeLedger,
		ResourceID:   entry.ID,
		RequestID:    input.RequestID,
		AfterState:   domain.MarshalState(entry),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, audit); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		invalidateScopes(ctx, uc.cache, entry)
	}

	return entry, nil
}

// ConsistencyReport is the result of a full ledger reconciliation.
type ConsistencyReport struct {
	TotalCredits decimal.Decimal
	TotalDebits  decimal.Decimal
	Net          decimal.Decimal
	Consistent   bool
	CheckedAt    time.Time
}

// CheckConsistency verifies that the ledger-implied balance matches
// credits minus debits across all entries.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	credits, debits, net, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		TotalCredits: credits,
		TotalDebits:  debits,
		Net:          net,
		Consistent:   credits.Sub(debits).Equal(net),
		CheckedAt:    time.Now().UTC(),
	}

	if !report.Consistent {
		return report, fmt.Errorf(
			"%w: credits=%s debits=%s net=%s",
			ErrInconsistentLedger, credits, debits, net,
		)
	}

	return report, nil
}

// ReconcileLoan verifies that a loan's PaidAmount matches the sum of the
// Debit entries recorded against it.
func (uc *LedgerUseCase) ReconcileLoan(ctx context.Context, loanID string) error {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return err
	}

	repaid, err := uc.ledgerRepo.SumRepaymentsByLoan(ctx, loanID)
	if err != nil {
		return err
	}

	// A completed loan's PaidAmount is clamped to the snapshot total, so the
	// entry sum may trail it by up to the completion epsilon.
	diff := loan.PaidAmount.Sub(repaid).Abs()
	if loan.Status == domain.LoanStatusCompleted {
		if diff.LessThanOrEqual(decimal.NewFromFloat(0.5)) {
			return nil
		}
	} else if diff.IsZero() {
		return nil
	}

	return fmt.Errorf(
		"%w: loan %s paid=%s ledger=%s",
		ErrInconsistentLedger, loan.Reference, loan.PaidAmount, repaid,
	)
}
