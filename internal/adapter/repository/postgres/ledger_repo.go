package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

const ledgerColumns = `
	id, reference, user_id, student_id, loan_id,
	direction, amount, description, sub_description, status, created_at`

// LedgerRepository implements usecase.LedgerRepository over an append-only
// ledger_entries table. There is no Update or Delete on purpose.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Create appends a ledger entry within a transaction.
func (r *LedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO ledger_entries (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := pgxTx.Exec(ctx, query,
		entry.ID,
		entry.Reference,
		entry.UserID,
		entry.StudentID,
		entry.LoanID,
		entry.Direction,
		decimalToNumeric(entry.Amount),
		entry.Description,
		entry.SubDescription,
		entry.Status,
		timeToPgTimestamptz(entry.CreatedAt),
	)

	return err
}

// GetByID retrieves a ledger entry by ID.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	query := `SELECT` + ledgerColumns + ` FROM ledger_entries WHERE id = $1`

	entry, err := scanLedgerEntry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}

		return nil, err
	}

	return entry, nil
}

// ListByScope lists entries visible in the scope, most recent first.
func (r *LedgerRepository) ListByScope(ctx context.Context, scope domain.LedgerScope, limit, offset int) ([]*domain.LedgerEntry, error) {
	where, args := scopeWhere(scope)

	query := `SELECT` + ledgerColumns + ` FROM ledger_entries` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// SumByScope returns the signed balance of the scope.
func (r *LedgerRepository) SumByScope(ctx context.Context, scope domain.LedgerScope) (decimal.Decimal, error) {
	return r.sumByScope(ctx, r.pool, scope)
}

// SumByScopeTx returns the signed balance of the scope inside a transaction,
// after the scope's advisory lock has been taken.
func (r *LedgerRepository) SumByScopeTx(ctx context.Context, tx usecase.Transaction, scope domain.LedgerScope) (decimal.Decimal, error) {
	return r.sumByScope(ctx, tx.(*Tx).PgxTx(), scope)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *LedgerRepository) sumByScope(ctx context.Context, q rowQuerier, scope domain.LedgerScope) (decimal.Decimal, error) {
	where, args := scopeWhere(scope)

	query := `
		SELECT COALESCE(SUM(CASE WHEN direction = 'Credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries` + where

	var sum pgtype.Numeric
	if err := q.QueryRow(ctx, query, args...).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// LockScope serializes ledger writers on the scope for the duration of the
// transaction. The lock pairs with SumByScopeTx so a withdrawal's balance
// check cannot race a concurrent append into overdraft.
func (r *LedgerRepository) LockScope(ctx context.Context, tx usecase.Transaction, scope domain.LedgerScope) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, scope.Key())

	return err
}

// SumRepaymentsByLoan sums the Debit repayment entries linked to a loan.
func (r *LedgerRepository) SumRepaymentsByLoan(ctx context.Context, loanID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE loan_id = $1 AND direction = 'Debit'
	`

	var sum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query, loanID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// CheckConsistency recomputes the global credit, debit and net totals in a
// single scan so the three figures come from the same snapshot.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (credits, debits, net decimal.Decimal, err error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN direction = 'Credit' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'Debit' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN direction = 'Credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
	`

	var creditSum, debitSum, netSum pgtype.Numeric
	if err := r.pool.QueryRow(ctx, query).Scan(&creditSum, &debitSum, &netSum); err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}

	return numericToDecimal(creditSum), numericToDecimal(debitSum), numericToDecimal(netSum), nil
}

// scopeWhere builds the WHERE clause selecting a ledger scope. The global
// scope matches everything; a user scope matches the user's entries; a
// student-anchored scope narrows to one application's ledger.
func scopeWhere(scope domain.LedgerScope) (string, []any) {
	if scope.IsGlobal() {
		return ``, nil
	}

	where := ` WHERE user_id = $1`
	args := []any{scope.UserID}

	if scope.StudentID != "" {
		args = append(args, scope.StudentID)
		where += ` AND student_id = $2`
	}

	return where, args
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	var (
		entry     domain.LedgerEntry
		amount    pgtype.Numeric
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&entry.ID,
		&entry.Reference,
		&entry.UserID,
		&entry.StudentID,
		&entry.LoanID,
		&entry.Direction,
		&amount,
		&entry.Description,
		&entry.SubDescription,
		&entry.Status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Amount = numericToDecimal(amount)
	entry.CreatedAt = createdAt.Time

	return &entry, nil
}
