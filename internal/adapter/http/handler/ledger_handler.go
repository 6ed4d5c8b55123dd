package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/adapter/http/middleware"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/usecase"
)

// LedgerService defines the ledger operations the handler needs.
type LedgerService interface {
	GetLedger(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error)
	GetBalance(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error)
	WithdrawFunds(ctx context.Context, input usecase.WithdrawInput) (*domain.LedgerEntry, error)
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.LedgerEntry, error)
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LedgerHandler handles ledger HTTP requests.
type LedgerHandler struct {
	ledgerUC LedgerService
	metrics  *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler. metrics may be nil.
func NewLedgerHandler(ledgerUC LedgerService, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, metrics: m}
}

// resolveScope narrows the requested scope to what the caller may see.
// Non-admins are pinned to their own sub-ledger regardless of query params.
func resolveScope(r *http.Request, user *domain.User) domain.LedgerScope {
	scope := scopeFromQuery(r)
	if user.Role != domain.RoleAdmin {
		scope.UserID = user.ID
	}
	return scope
}

// List handles GET /api/v1/ledger
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	scope := resolveScope(r, user)
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	entries, err := h.ledgerUC.GetLedger(r.Context(), scope, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list ledger entries", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLedgerResponse{
		Entries: dto.LedgerEntriesFromDomain(entries),
		Limit:   limit,
		Offset:  offset,
	})
}

// Balance handles GET /api/v1/ledger/balance
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	scope := resolveScope(r, user)

	balance, err := h.ledgerUC.GetBalance(r.Context(), scope)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Scope:   scope.Key(),
		Balance: balance,
	})
}

// Withdraw handles POST /api/v1/ledger/withdrawals (admin only)
func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledgerUC.WithdrawFunds(r.Context(), usecase.WithdrawInput{
		Scope:       req.Scope(),
		ActorID:     user.ID,
		Amount:      req.Amount,
		Description: req.Description,
		RequestID:   requestID(r),
	})
	if err != nil {
		if h.metrics != nil && errors.Is(err, domain.ErrInsufficientBalance) {
			h.metrics.WithdrawalsRejected.Inc()
		}
		writeError(w, mapDomainError(err), "failed to withdraw", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.WithdrawalAmount.Observe(entry.Amount.InexactFloat64())
	}

	writeJSON(w, http.StatusCreated, dto.LedgerEntryFromDomain(entry))
}

// Deposit handles POST /api/v1/ledger/deposits (admin only)
func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledgerUC.Deposit(r.Context(), usecase.DepositInput{
		Scope:     req.Scope(),
		ActorID:   user.ID,
		Name:      req.Name,
		Amount:    req.Amount,
		RequestID: requestID(r),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to deposit", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.DepositAmount.Observe(entry.Amount.InexactFloat64())
	}

	writeJSON(w, http.StatusCreated, dto.LedgerEntryFromDomain(entry))
}

// Consistency handles GET /api/v1/ledger/consistency (admin only)
func (h *LedgerHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to check consistency", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}
