package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/iho/loanledger/internal/adapter/http/dto"
	"github.com/iho/loanledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound),
		errors.Is(err, domain.ErrLedgerEntryNotFound),
		errors.Is(err, domain.ErrStudentNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicatePendingLoan),
		errors.Is(err, domain.ErrLoanAlreadyFunded),
		errors.Is(err, domain.ErrLoanAlreadyRepaid),
		errors.Is(err, domain.ErrLoanNotRepayable),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrStaleLoan):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTerm),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrInvalidCategory),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPartnerNotLinked),
		errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// scopeFromQuery builds the ledger scope from query parameters. Absent
// parameters mean the admin-wide scope.
func scopeFromQuery(r *http.Request) domain.LedgerScope {
	return domain.LedgerScope{
		UserID:    r.URL.Query().Get("user_id"),
		StudentID: r.URL.Query().Get("student_id"),
	}
}

// requestID returns the chi request ID for audit trails.
func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
