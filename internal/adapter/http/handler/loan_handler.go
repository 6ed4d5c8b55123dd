package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/adapter/http/middleware"
	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/infrastructure/metrics"
	"github.com/iho/loanledger/internal/usecase"
)

// LoanService defines the loan operations the handler needs.
type LoanService interface {
	SubmitLoanRequest(ctx context.Context, input usecase.SubmitLoanInput) (*domain.Loan, error)
	GetLoan(ctx context.Context, id string) (*domain.Loan, error)
	ListLoans(ctx context.Context, filter usecase.LoanFilter) (*usecase.ListLoansResult, error)
	ListUserLoans(ctx context.Context, userID string, limit, offset int) ([]*domain.Loan, error)
	OverrideStatus(ctx context.Context, input usecase.OverrideStatusInput) (*domain.Loan, error)
}

// RepaymentService defines the repayment operations the handler needs.
type RepaymentService interface {
	ApplyRepayment(ctx context.Context, input usecase.ApplyRepaymentInput) (*usecase.RepaymentResult, error)
}

// FundingService defines the funding operations the handler needs.
type FundingService interface {
	FundLoan(ctx context.Context, input usecase.FundLoanInput) (*domain.Loan, error)
}

// LoanHandler handles loan HTTP requests.
type LoanHandler struct {
	loanUC      LoanService
	repaymentUC RepaymentService
	fundingUC   FundingService
	metrics     *metrics.Metrics
}

// NewLoanHandler creates a new LoanHandler. metrics may be nil.
func NewLoanHandler(loanUC LoanService, repaymentUC RepaymentService, fundingUC FundingService, m *metrics.Metrics) *LoanHandler {
	return &LoanHandler{
		loanUC:      loanUC,
		repaymentUC: repaymentUC,
		fundingUC:   fundingUC,
		metrics:     m,
	}
}

// Submit handles POST /api/v1/loans
func (h *LoanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req dto.SubmitLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.SubmitLoanRequest(r.Context(), req.ToUseCaseInput(user.ID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to submit loan", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.LoansSubmitted.Inc()
		h.metrics.LoanPrincipal.Observe(loan.PrincipalRequested.InexactFloat64())
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get handles GET /api/v1/loans/{id}
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")

	loan, err := h.loanUC.GetLoan(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get loan", err.Error())
		return
	}

	// Owners see their own loans; partners and admins see everything they
	// may act on.
	if loan.UserID != user.ID && !user.Role.CanFund() {
		writeError(w, http.StatusForbidden, "access denied", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// List handles GET /api/v1/loans (admin only)
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := usecase.LoanFilter{
		Status:   domain.LoanStatus(r.URL.Query().Get("status")),
		Category: r.URL.Query().Get("category"),
		UserID:   r.URL.Query().Get("user_id"),
		Search:   r.URL.Query().Get("search"),
		Limit:    parseIntQuery(r, "limit", 20),
		Offset:   parseIntQuery(r, "offset", 0),
	}

	result, err := h.loanUC.ListLoans(r.Context(), filter)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLoansResponse{
		Loans:  dto.LoansFromDomain(result.Loans),
		Total:  result.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ListMine handles GET /api/v1/loans/mine
func (h *LoanHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	loans, err := h.loanUC.ListUserLoans(r.Context(), user.ID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list loans", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListLoansResponse{
		Loans:  dto.LoansFromDomain(loans),
		Total:  len(loans),
		Limit:  limit,
		Offset: offset,
	})
}

// Repay handles POST /api/v1/loans/{id}/repayments
func (h *LoanHandler) Repay(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")

	var req dto.RepaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.repaymentUC.ApplyRepayment(r.Context(), usecase.ApplyRepaymentInput{
		LoanID:  id,
		ActorID: user.ID,
		Amount:  req.Amount,
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply repayment", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RepaymentsApplied.Inc()
		h.metrics.RepaymentAmount.Observe(req.Amount.InexactFloat64())
		if result.Completed {
			h.metrics.LoansCompleted.Inc()
		}
	}

	writeJSON(w, http.StatusOK, dto.RepaymentFromResult(result))
}

// Fund handles POST /api/v1/loans/{id}/fund
func (h *LoanHandler) Fund(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")

	loan, err := h.fundingUC.FundLoan(r.Context(), usecase.FundLoanInput{
		LoanID:    id,
		PartnerID: user.ID,
		RequestID: requestID(r),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to fund loan", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.LoansFunded.Inc()
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// OverrideStatus handles PATCH /api/v1/loans/{id}/status (admin only)
func (h *LoanHandler) OverrideStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	id := chi.URLParam(r, "id")

	var req dto.OverrideStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	loan, err := h.loanUC.OverrideStatus(r.Context(), usecase.OverrideStatusInput{
		LoanID:    id,
		Target:    req.Status,
		ActorID:   user.ID,
		RequestID: requestID(r),
	})
	if err != nil {
		writeError(w, mapDomainError(err), "failed to override status", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.StatusOverrides.WithLabelValues(string(req.Status)).Inc()
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}
