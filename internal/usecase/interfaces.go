package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
)

// LoanFilter narrows loan listings.
type LoanFilter struct {
	Status   domain.LoanStatus
	Category string
	UserID   string
	Search   string // matches title or reference
	Limit    int
	Offset   int
}

// LoanRepository defines data access for loans.
type LoanRepository interface {
	Create(ctx context.Context, loan *domain.Loan) error
	CreateTx(ctx context.Context, tx Transaction, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Loan, error)
	// Update persists the loan guarded by its Version and bumps it. Returns
	// domain.ErrStaleLoan when the row was modified since the read.
	Update(ctx context.Context, tx Transaction, loan *domain.Loan) error
	HasPendingByOwnerAndCategory(ctx context.Context, userID, category string) (bool, error)
	ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*domain.Loan, error)
	// List returns a filtered page and the total count for pagination metadata.
	List(ctx context.Context, filter LoanFilter) ([]*domain.Loan, int, error)
}

// LedgerRepository defines data access for the append-only ledger.
type LedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListByScope(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error)
	// SumByScope returns SUM(credits) - SUM(debits) for the scope.
	SumByScope(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error)
	// SumByScopeTx sums inside an open transaction, after LockScope, so the
	// figure cannot move before the transaction commits.
	SumByScopeTx(ctx context.Context, tx Transaction, scope domain.LedgerScope) (decimal.Decimal, error)
	// LockScope takes the per-scope advisory lock for the life of tx.
	LockScope(ctx context.Context, tx Transaction, scope domain.LedgerScope) error
	// SumRepaymentsByLoan returns the total of debit entries recorded against
	// a loan, used for reconciliation against the loan's PaidAmount.
	SumRepaymentsByLoan(ctx context.Context, loanID string) (decimal.Decimal, error)
	// CheckConsistency returns total credits, total debits and the signed sum
	// across the whole ledger.
	CheckConsistency(ctx context.Context) (credits, debits, net decimal.Decimal, err error)
}

// StudentRepository defines data access for student referral records.
type StudentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	// FindByUserAndPartner resolves the student record linking a loan owner to
	// a referring partner. Returns domain.ErrStudentNotFound when no link exists.
	FindByUserAndPartner(ctx context.Context, userID, partnerID string) (*domain.Student, error)
	ListByPartner(ctx context.Context, partnerID string, limit, offset int) ([]*domain.Student, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
	GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs and human-readable references.
type IDGenerator interface {
	Generate() string
	// LoanReference returns a display reference like LN-482917.
	LoanReference() string
	// PaymentReference returns a display reference like TXN-583920.
	PaymentReference() string
}

// Retrier re-runs an operation on transient database failures such as
// deadlocks and serialization errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
