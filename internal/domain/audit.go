package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records who changed a loan or the ledger, and how. Used for the
// admin override path and funding decisions.
type AuditLog struct {
	ID           string
	UserID       string // who performed the action
	Action       string
	ResourceType string // loan, ledger
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string // success, failure
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data.
type JSON map[string]any

// AuditAction represents different types of auditable actions.
type AuditAction string

const (
	AuditActionLoanSubmit     AuditAction = "loan.submit"
	AuditActionLoanFund       AuditAction = "loan.fund"
	AuditActionLoanRepay      AuditAction = "loan.repay"
	AuditActionStatusOverride AuditAction = "loan.status_override"
	AuditActionWithdraw       AuditAction = "ledger.withdraw"
	AuditActionDeposit        AuditAction = "ledger.deposit"
)

// AuditStatus represents the status of an audited action.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging.
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs.
type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
