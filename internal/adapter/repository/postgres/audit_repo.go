package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

const auditColumns = `
	id, user_id, action, resource_type, resource_id, request_id,
	before_state, after_state, status, error_message, created_at`

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Create inserts an audit log entry.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	return r.create(ctx, r.pool, log)
}

// CreateTx inserts an audit log entry within a transaction, so the audit
// record commits or rolls back together with the action it describes.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return r.create(ctx, tx.(*Tx).PgxTx(), log)
}

func (r *AuditRepository) create(ctx context.Context, q execer, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		log.ID,
		log.UserID,
		log.Action,
		log.ResourceType,
		log.ResourceID,
		log.RequestID,
		log.BeforeState,
		log.AfterState,
		log.Status,
		log.ErrorMessage,
		timeToPgTimestamptz(log.CreatedAt),
	)

	return err
}

// List lists audit logs matching the filter, most recent first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	where := ` WHERE 1=1`
	args := []any{}

	addArg := func(clause string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(clause, len(args))
	}

	if filter.UserID != "" {
		addArg(` AND user_id = $%d`, filter.UserID)
	}

	if filter.Action != "" {
		addArg(` AND action = $%d`, filter.Action)
	}

	if filter.ResourceType != "" {
		addArg(` AND resource_type = $%d`, filter.ResourceType)
	}

	if filter.ResourceID != "" {
		addArg(` AND resource_id = $%d`, filter.ResourceID)
	}

	if filter.StartDate != nil {
		addArg(` AND created_at >= $%d`, *filter.StartDate)
	}

	if filter.EndDate != nil {
		addArg(` AND created_at <= $%d`, *filter.EndDate)
	}

	limit, offset := domain.ValidatePagination(filter.Limit, filter.Offset)

	query := `SELECT` + auditColumns + ` FROM audit_logs` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

// GetByResourceID returns the audit trail of one resource, oldest first.
func (r *AuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	query := `
		SELECT` + auditColumns + `
		FROM audit_logs
		WHERE resource_type = $1 AND resource_id = $2
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, resourceType, resourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var (
			log       domain.AuditLog
			createdAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&log.ID,
			&log.UserID,
			&log.Action,
			&log.ResourceType,
			&log.ResourceID,
			&log.RequestID,
			&log.BeforeState,
			&log.AfterState,
			&log.Status,
			&log.ErrorMessage,
			&createdAt,
		)
		if err != nil {
			return nil, err
		}

		log.CreatedAt = createdAt.Time
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
