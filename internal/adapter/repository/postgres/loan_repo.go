package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

const loanColumns = `
	id, reference, user_id, student_id, partner_id, title, category,
	principal_requested, total_with_interest, total_amount, paid_amount,
	monthly_payment, monthly_rate_percent, period_months,
	payoff_date, disbursement_date, status, version, created_at, updated_at`

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	pool *pgxpool.Pool
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return &LoanRepository{pool: pool}
}

// Create inserts a new loan.
func (r *LoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	return r.create(ctx, r.pool, loan)
}

// CreateTx inserts a new loan within a transaction.
func (r *LoanRepository) CreateTx(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	return r.create(ctx, tx.(*Tx).PgxTx(), loan)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *LoanRepository) create(ctx context.Context, q execer, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := q.Exec(ctx, query,
		loan.ID,
		loan.Reference,
		loan.UserID,
		loan.StudentID,
		loan.PartnerID,
		loan.Title,
		loan.Category,
		decimalToNumeric(loan.PrincipalRequested),
		decimalToNumeric(loan.TotalWithInterest),
		decimalToNumeric(loan.TotalAmount),
		decimalToNumeric(loan.PaidAmount),
		decimalToNumeric(loan.MonthlyPayment),
		decimalToNumeric(loan.MonthlyRatePercent),
		loan.PeriodMonths,
		timeToPgTimestamptz(loan.PayoffDate),
		loan.DisbursementDate,
		loan.Status,
		loan.Version,
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)

	return err
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT` + loanColumns + ` FROM loans WHERE id = $1`

	loan, err := scanLoan(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	return loan, nil
}

// GetByIDForUpdate retrieves a loan by ID with a FOR UPDATE lock.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `SELECT` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	loan, err := scanLoan(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	return loan, nil
}

// Update persists a loan guarded by its version and bumps it.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE loans
		SET student_id = $2, partner_id = $3,
		    total_with_interest = $4, total_amount = $5, paid_amount = $6,
		    monthly_payment = $7, status = $8, disbursement_date = $9,
		    version = version + 1, updated_at = $10
		WHERE id = $1 AND version = $11
	`

	tag, err := pgxTx.Exec(ctx, query,
		loan.ID,
		loan.StudentID,
		loan.PartnerID,
		decimalToNumeric(loan.TotalWithInterest),
		decimalToNumeric(loan.TotalAmount),
		decimalToNumeric(loan.PaidAmount),
		decimalToNumeric(loan.MonthlyPayment),
		loan.Status,
		loan.DisbursementDate,
		timeToPgTimestamptz(loan.UpdatedAt),
		loan.Version,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrStaleLoan
	}

	loan.Version++

	return nil
}

// HasPendingByOwnerAndCategory reports whether the user already has a Pending
// application in the category.
func (r *LoanRepository) HasPendingByOwnerAndCategory(ctx context.Context, userID, category string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM loans
			WHERE user_id = $1 AND category = $2 AND status = $3
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID, category, domain.LoanStatusPending).Scan(&exists)

	return exists, err
}

// ListByOwner lists a user's loans, most recent first.
func (r *LoanRepository) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]*domain.Loan, error) {
	query := `
		SELECT` + loanColumns + `
		FROM loans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLoans(rows)
}

// List lists loans with filters and returns the total count for pagination.
func (r *LoanRepository) List(ctx context.Context, filter usecase.LoanFilter) ([]*domain.Loan, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.Status != "" {
		addArg(` AND status = $%d`, filter.Status)
	}

	if filter.Category != "" {
		addArg(` AND category = $%d`, filter.Category)
	}

	if filter.UserID != "" {
		addArg(` AND user_id = $%d`, filter.UserID)
	}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (title ILIKE $%d OR reference ILIKE $%d)`, len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + loanColumns + ` FROM loans` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	loans, err := scanLoans(rows)
	if err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

func scanLoans(rows pgx.Rows) ([]*domain.Loan, error) {
	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		loan             domain.Loan
		principal        pgtype.Numeric
		totalWI          pgtype.Numeric
		totalAmount      pgtype.Numeric
		paidAmount       pgtype.Numeric
		monthlyPayment   pgtype.Numeric
		monthlyRate      pgtype.Numeric
		payoffDate       pgtype.Timestamptz
		disbursementDate pgtype.Timestamptz
		createdAt        pgtype.Timestamptz
		updatedAt        pgtype.Timestamptz
	)

	err := row.Scan(
		&loan.ID,
		&loan.Reference,
		&loan.UserID,
		&loan.StudentID,
		&loan.PartnerID,
		&loan.Title,
		&loan.Category,
		&principal,
		&totalWI,
		&totalAmount,
		&paidAmount,
		&monthlyPayment,
		&monthlyRate,
		&loan.PeriodMonths,
		&payoffDate,
		&disbursementDate,
		&loan.Status,
		&loan.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.PrincipalRequested = numericToDecimal(principal)
	loan.TotalWithInterest = numericToDecimal(totalWI)
	loan.TotalAmount = numericToDecimal(totalAmount)
	loan.PaidAmount = numericToDecimal(paidAmount)
	loan.MonthlyPayment = numericToDecimal(monthlyPayment)
	loan.MonthlyRatePercent = numericToDecimal(monthlyRate)
	loan.PayoffDate = payoffDate.Time

	if disbursementDate.Valid {
		t := disbursementDate.Time
		loan.DisbursementDate = &t
	}

	loan.CreatedAt = createdAt.Time
	loan.UpdatedAt = updatedAt.Time

	return &loan, nil
}
