package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
	"github.com/iho/loanledger/internal/usecase/mocks"
)

type ledgerFixture struct {
	uc         *usecase.LedgerUseCase
	loanRepo   *mocks.FakeLoanRepository
	ledgerRepo *mocks.FakeLedgerRepository
	auditRepo  *mocks.FakeAuditRepository
	outbox     *mocks.FakeOutboxRepository
	cache      *mocks.FakeCache
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		loanRepo:   mocks.NewFakeLoanRepository(),
		ledgerRepo: mocks.NewFakeLedgerRepository(),
		auditRepo:  mocks.NewFakeAuditRepository(),
		outbox:     mocks.NewFakeOutboxRepository(),
		cache:      mocks.NewFakeCache(),
	}

	f.uc = usecase.NewLedgerUseCase(
		mocks.NewFakeTransactionManager(),
		f.ledgerRepo,
		f.loanRepo,
		f.auditRepo,
		f.outbox,
		mocks.NewFakeIDGenerator(),
		f.cache,
	)

	return f
}

func TestLedgerUseCase_DepositAndBalance(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	entry, err := f.uc.Deposit(ctx, usecase.DepositInput{
		ActorID: "admin-1",
		Name:    "Seed capital",
		Amount:  decimal.NewFromInt(50000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Direction != domain.DirectionCredit {
		t.Errorf("Direction = %s, want Credit", entry.Direction)
	}

	balance, err := f.uc.GetBalance(ctx, domain.LedgerScope{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(50000)) {
		t.Errorf("balance = %s, want 50000", balance)
	}
}

func TestLedgerUseCase_WithdrawFunds(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	if _, err := f.uc.Deposit(ctx, usecase.DepositInput{
		ActorID: "admin-1",
		Name:    "Seed capital",
		Amount:  decimal.NewFromInt(1000),
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	entry, err := f.uc.WithdrawFunds(ctx, usecase.WithdrawInput{
		ActorID: "admin-1",
		Amount:  decimal.NewFromInt(400),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.Direction != domain.DirectionDebit {
		t.Errorf("Direction = %s, want Debit", entry.Direction)
	}

	balance, err := f.uc.GetBalance(ctx, domain.LedgerScope{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("balance = %s, want 600", balance)
	}
}

func TestLedgerUseCase_WithdrawFunds_Insufficient(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	if _, err := f.uc.Deposit(ctx, usecase.DepositInput{
		ActorID: "admin-1",
		Name:    "Seed capital",
		Amount:  decimal.NewFromInt(100),
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	_, err := f.uc.WithdrawFunds(ctx, usecase.WithdrawInput{
		ActorID: "admin-1",
		Amount:  decimal.NewFromInt(500),
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("error = %v, want ErrInsufficientBalance", err)
	}

	// The rejected withdrawal must not leave a ledger trace.
	if len(f.ledgerRepo.Entries()) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(f.ledgerRepo.Entries()))
	}
}

func TestLedgerUseCase_BalanceCacheInvalidation(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()
	scope := domain.LedgerScope{}

	if _, err := f.uc.Deposit(ctx, usecase.DepositInput{
		ActorID: "admin-1", Name: "Seed", Amount: decimal.NewFromInt(1000),
	}); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}

	// First read populates the cache.
	if _, err := f.uc.GetBalance(ctx, scope); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A write in scope invalidates it; the next read must see the new figure.
	if _, err := f.uc.WithdrawFunds(ctx, usecase.WithdrawInput{
		ActorID: "admin-1", Amount: decimal.NewFromInt(250),
	}); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	balance, err := f.uc.GetBalance(ctx, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !balance.Equal(decimal.NewFromInt(750)) {
		t.Errorf("balance = %s, want 750 (stale cache served)", balance)
	}
}

func TestLedgerUseCase_BalanceReconcilesAcrossOperations(t *testing.T) {
	// Deposits, a funding credit, repayment debits and a withdrawal: the
	// balance must always equal SUM(credits) - SUM(debits).
	f := newLedgerFixture()
	ctx := context.Background()

	ops := []struct {
		direction domain.EntryDirection
		amount    int64
	}{
		{domain.DirectionCredit, 50000}, // capital inflow
		{domain.DirectionCredit, 10000}, // disbursement
		{domain.DirectionDebit, 1350},   // repayment
		{domain.DirectionDebit, 1350},   // repayment
		{domain.DirectionDebit, 20000},  // withdrawal
	}

	want := decimal.Zero
	for i, op := range ops {
		var err error
		if op.direction == domain.DirectionCredit {
			_, err = f.uc.Deposit(ctx, usecase.DepositInput{
				ActorID: "admin-1", Name: "inflow", Amount: decimal.NewFromInt(op.amount),
			})
			want = want.Add(decimal.NewFromInt(op.amount))
		} else {
			_, err = f.uc.WithdrawFunds(ctx, usecase.WithdrawInput{
				ActorID: "admin-1", Amount: decimal.NewFromInt(op.amount),
			})
			want = want.Sub(decimal.NewFromInt(op.amount))
		}
		if err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}

		balance, err := f.uc.GetBalance(ctx, domain.LedgerScope{})
		if err != nil {
			t.Fatalf("op %d: balance read failed: %v", i, err)
		}

		if !balance.Equal(want) {
			t.Fatalf("op %d: balance = %s, want %s", i, balance, want)
		}
	}

	report, err := f.uc.CheckConsistency(ctx)
	if err != nil {
		t.Fatalf("consistency check failed: %v", err)
	}

	if !report.Consistent {
		t.Error("ledger reported inconsistent")
	}

	if !report.Net.Equal(want) {
		t.Errorf("Net = %s, want %s", report.Net, want)
	}
}

func TestLedgerUseCase_CheckConsistency_Mismatch(t *testing.T) {
	f := newLedgerFixture()

	f.ledgerRepo.ConsistencyFunc = func(ctx context.Context) (decimal.Decimal, decimal.Decimal, decimal.Decimal, error) {
		// Stored running figure drifted from the entry sums.
		return decimal.NewFromInt(100), decimal.NewFromInt(40), decimal.NewFromInt(55), nil
	}

	report, err := f.uc.CheckConsistency(context.Background())
	if !errors.Is(err, usecase.ErrInconsistentLedger) {
		t.Errorf("error = %v, want ErrInconsistentLedger", err)
	}

	if report == nil || report.Consistent {
		t.Error("report must flag the mismatch")
	}
}

func TestLedgerUseCase_ReconcileLoan(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	loanID := "loan-1"
	f.loanRepo.Seed(&domain.Loan{
		ID:                loanID,
		Reference:         "LN-1",
		UserID:            "user-1",
		TotalWithInterest: decimal.NewFromInt(1000),
		PaidAmount:        decimal.NewFromInt(300),
		Status:            domain.LoanStatusDisbursed,
	})

	entry := &domain.LedgerEntry{
		ID:        "e1",
		UserID:    "user-1",
		LoanID:    &loanID,
		Direction: domain.DirectionDebit,
		Amount:    decimal.NewFromInt(300),
		Status:    domain.EntryStatusCompleted,
	}
	if err := f.ledgerRepo.Create(ctx, nil, entry); err != nil {
		t.Fatalf("seed entry failed: %v", err)
	}

	if err := f.uc.ReconcileLoan(ctx, loanID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Drift the loan record; reconciliation must now fail.
	loan := f.loanRepo.Stored(loanID)
	loan.PaidAmount = decimal.NewFromInt(500)
	f.loanRepo.Seed(loan)

	if err := f.uc.ReconcileLoan(ctx, loanID); !errors.Is(err, usecase.ErrInconsistentLedger) {
		t.Errorf("error = %v, want ErrInconsistentLedger", err)
	}
}

func TestLedgerUseCase_GetLedger_ScopeFiltering(t *testing.T) {
	f := newLedgerFixture()
	ctx := context.Background()

	student := "student-1"
	entries := []*domain.LedgerEntry{
		{ID: "e1", UserID: "user-1", StudentID: &student, Direction: domain.DirectionCredit, Amount: decimal.NewFromInt(100)},
		{ID: "e2", UserID: "user-2", Direction: domain.DirectionCredit, Amount: decimal.NewFromInt(200)},
		{ID: "e3", UserID: "user-1", Direction: domain.DirectionDebit, Amount: decimal.NewFromInt(50)},
	}
	for _, e := range entries {
		if err := f.ledgerRepo.Create(ctx, nil, e); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	all, err := f.uc.GetLedger(ctx, domain.LedgerScope{}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("global scope entries = %d, want 3", len(all))
	}

	mine, err := f.uc.GetLedger(ctx, domain.LedgerScope{UserID: "user-1"}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("user scope entries = %d, want 2", len(mine))
	}

	anchored, err := f.uc.GetLedger(ctx, domain.LedgerScope{UserID: "user-1", StudentID: student}, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anchored) != 1 {
		t.Errorf("student scope entries = %d, want 1", len(anchored))
	}
}
