package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/loanledger/internal/domain"
)

// StudentRepository implements usecase.StudentRepository.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `id, user_id, partner_id, full_name, email, status, created_at, updated_at`

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// FindByUserAndPartner finds the student record linking a loan owner to a
// referring partner. Absence means the partner may not fund the owner's loans.
func (r *StudentRepository) FindByUserAndPartner(ctx context.Context, userID, partnerID string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1 AND partner_id = $2`

	return r.scanOne(r.pool.QueryRow(ctx, query, userID, partnerID))
}

// ListByPartner lists the students a partner referred.
func (r *StudentRepository) ListByPartner(ctx context.Context, partnerID string, limit, offset int) ([]*domain.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students
		WHERE partner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, partnerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []*domain.Student
	for rows.Next() {
		var s domain.Student
		if err := rows.Scan(&s.ID, &s.UserID, &s.PartnerID, &s.FullName, &s.Email, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		students = append(students, &s)
	}

	return students, rows.Err()
}

func (r *StudentRepository) scanOne(row pgx.Row) (*domain.Student, error) {
	var s domain.Student

	err := row.Scan(&s.ID, &s.UserID, &s.PartnerID, &s.FullName, &s.Email, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStudentNotFound
		}

		return nil, err
	}

	return &s, nil
}
