package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryDirection marks a ledger entry as an inflow or an outflow.
type EntryDirection string

const (
	DirectionCredit EntryDirection = "Credit"
	DirectionDebit  EntryDirection = "Debit"
)

// EntryStatus is the settlement state of a ledger entry.
type EntryStatus string

const (
	EntryStatusCompleted EntryStatus = "Completed"
	EntryStatusPending   EntryStatus = "Pending"
	EntryStatusFailed    EntryStatus = "Failed"
)

// LedgerEntry is an append-only record of one financial event. Entries are
// never mutated or deleted; corrections are made with compensating entries.
type LedgerEntry struct {
	ID        string // ULID primary key
	Reference string // human-readable, e.g. TXN-583920

	UserID    string  // owning user; empty for admin-wide entries
	StudentID *string // application anchor, isolates ledgers per loan application
	LoanID    *string

	Direction      EntryDirection
	Amount         decimal.Decimal
	Description    string
	SubDescription string
	Status         EntryStatus

	CreatedAt time.Time
}

// Validate checks the entry before it is appended.
func (e *LedgerEntry) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if e.Direction != DirectionCredit && e.Direction != DirectionDebit {
		return ErrInvalidStatus
	}

	return nil
}

// Signed returns the entry amount with Credits positive and Debits negative,
// so a scope balance is the plain sum of signed amounts.
func (e *LedgerEntry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// LedgerScope selects a slice of the ledger. The zero value is the admin-wide
// scope covering every entry.
type LedgerScope struct {
	UserID    string
	StudentID string
}

// IsGlobal reports whether the scope covers the whole ledger.
func (s LedgerScope) IsGlobal() bool {
	return s.UserID == "" && s.StudentID == ""
}

// Key returns a stable string key for the scope, used for cache keys and
// advisory locks.
func (s LedgerScope) Key() string {
	if s.IsGlobal() {
		return "ledger:global"
	}
	return "ledger:" + s.UserID + ":" + s.StudentID
}
