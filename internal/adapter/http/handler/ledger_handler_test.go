package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

type ledgerServiceStub struct {
	getLedgerFn   func(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error)
	getBalanceFn  func(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error)
	withdrawFn    func(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error)
	depositFn     func(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error)
	consistencyFn func(ctx context.Context) (*usecase.ConsistencyReport, error)
}

func (s *ledgerServiceStub) GetLedger(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error) {
	return s.getLedgerFn(ctx, scope, limit, offset)
}

func (s *ledgerServiceStub) GetBalance(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error) {
	return s.getBalanceFn(ctx, scope)
}

func (s *ledgerServiceStub) WithdrawFunds(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error) {
	return s.withdrawFn(ctx, input)
}

func (s *ledgerServiceStub) Deposit(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error) {
	return s.depositFn(ctx, input)
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return s.consistencyFn(ctx)
}

func testEntry(direction domain.EntryDirection) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:          "01HENTRY00000000000000001",
		Reference:   "TXN-583920",
		UserID:      "user-1",
		Direction:   direction,
		Amount:      decimal.NewFromInt(500),
		Description: "Repayment",
		Status:      domain.EntryStatusCompleted,
		CreatedAt:   time.Now(),
	}
}

func TestLedgerHandler_List_NonAdminPinnedToOwnScope(t *testing.T) {
	var captured domain.LedgerScope
	ledgerUC := &ledgerServiceStub{
		getLedgerFn: func(_ context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error) {
			captured = scope
			return []*domain.LedgerEntry{testEntry(domain.DirectionDebit)}, nil
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	// A student asking for another user's sub-ledger still gets its own.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger?user_id=user-9", nil)
	req = withUser(req, &domain.User{ID: "user-1", Role: domain.RoleStudent})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if captured.UserID != "user-1" {
		t.Errorf("scope.UserID = %q, want user-1", captured.UserID)
	}
}

func TestLedgerHandler_List_AdminMayQueryAnyScope(t *testing.T) {
	var captured domain.LedgerScope
	ledgerUC := &ledgerServiceStub{
		getLedgerFn: func(_ context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error) {
			captured = scope
			return nil, nil
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger?user_id=user-9&student_id=student-3", nil)
	req = withUser(req, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if captured.UserID != "user-9" || captured.StudentID != "student-3" {
		t.Errorf("scope = %+v", captured)
	}
}

func TestLedgerHandler_Balance(t *testing.T) {
	ledgerUC := &ledgerServiceStub{
		getBalanceFn: func(_ context.Context, scope domain.LedgerScope) (decimal.Decimal, error) {
			return decimal.NewFromInt(1500), nil
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/balance", nil)
	req = withUser(req, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.Balance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Scope   string `json:"scope"`
		Balance string `json:"balance"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.Scope != "ledger:global" {
		t.Errorf("scope = %q, want ledger:global", resp.Scope)
	}

	if resp.Balance != "1500" {
		t.Errorf("balance = %q, want 1500", resp.Balance)
	}
}

func TestLedgerHandler_Withdraw(t *testing.T) {
	var captured usecase.WithdrawInput
	ledgerUC := &ledgerServiceStub{
		withdrawFn: func(_ context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error) {
			captured = input
			return testEntry(domain.DirectionDebit), nil
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	body := `{"amount":"250.00","description":"Payout","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/withdrawals", bytes.NewBufferString(body))
	req = withUser(req, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	if captured.ActorID != "admin-1" || captured.Scope.UserID != "user-1" {
		t.Errorf("input = %+v", captured)
	}

	if !captured.Amount.Equal(decimal.RequireFromString("250.00")) {
		t.Errorf("amount = %s, want 250.00", captured.Amount)
	}
}

func TestLedgerHandler_Withdraw_InsufficientBalance(t *testing.T) {
	ledgerUC := &ledgerServiceStub{
		withdrawFn: func(_ context.Context, _ usecase.WithdrawInput) (*domain.LedgerEntry, error) {
			return nil, domain.ErrInsufficientBalance
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/withdrawals", bytes.NewBufferString(`{"amount":"99999"}`))
	req = withUser(req, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.Withdraw(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestLedgerHandler_Deposit(t *testing.T) {
	var captured usecase.DepositInput
	ledgerUC := &ledgerServiceStub{
		depositFn: func(_ context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error) {
			captured = input
			return testEntry(domain.DirectionCredit), nil
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	body := `{"name":"Partner capital","amount":"10000","user_id":"partner-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ledger/deposits", bytes.NewBufferString(body))
	req = withUser(req, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.Deposit(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	if captured.Name != "Partner capital" || captured.Scope.UserID != "partner-1" {
		t.Errorf("input = %+v", captured)
	}
}

func TestLedgerHandler_Consistency(t *testing.T) {
	ledgerUC := &ledgerServiceStub{
		consistencyFn: func(_ context.Context) (*usecase.ConsistencyReport, error) {
			return &usecase.ConsistencyReport{
				TotalCredits: decimal.NewFromInt(1000),
				TotalDebits:  decimal.NewFromInt(400),
				Net:          decimal.NewFromInt(600),
				Consistent:   true,
				CheckedAt:    time.Now(),
			}, nil
		},
	}
	h := NewLedgerHandler(ledgerUC, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/consistency", nil)
	req = withUser(req, &domain.User{ID: "admin-1", Role: domain.RoleAdmin})
	rec := httptest.NewRecorder()

	h.Consistency(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}
