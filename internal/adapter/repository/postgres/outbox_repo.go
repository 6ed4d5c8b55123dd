package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/loanledger/internal/domain"
	"github.com/iho/loanledger/internal/usecase"
)

const outboxColumns = `
	id, aggregate_id, aggregate_type, event_type, payload,
	created_at, published_at, published`

// OutboxRepository implements usecase.OutboxRepository. Events are written in
// the same transaction as the state change they announce and drained by the
// background publisher.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// Create inserts an outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO outbox_events (id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		VALUES ($1, $2, $3, $4, $5, $6, false)
	`

	_, err := pgxTx.Exec(ctx, query,
		event.ID,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		event.Payload,
		timeToPgTimestamptz(event.CreatedAt),
	)

	return err
}

// GetUnpublished returns unpublished events in insertion order. Delivery is
// at-least-once: a publisher crash between publish and MarkPublished replays
// the event, so consumers deduplicate on event ID.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `
		SELECT` + outboxColumns + `
		FROM outbox_events
		WHERE published = false
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutboxEvents(rows)
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	query := `
		UPDATE outbox_events
		SET published = true, published_at = $2
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, timeToPgTimestamptz(publishedAt))

	return err
}

// GetByAggregate returns the event history of one aggregate, oldest first.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	query := `
		SELECT` + outboxColumns + `
		FROM outbox_events
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY created_at ASC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, aggregateType, aggregateID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanOutboxEvents(rows)
}

// DeletePublished prunes published events older than the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	query := `DELETE FROM outbox_events WHERE published = true AND published_at < $1`

	_, err := r.pool.Exec(ctx, query, timeToPgTimestamptz(before))

	return err
}

func scanOutboxEvents(rows pgx.Rows) ([]*domain.OutboxEvent, error) {
	var events []*domain.OutboxEvent
	for rows.Next() {
		var (
			event       domain.OutboxEvent
			createdAt   pgtype.Timestamptz
			publishedAt pgtype.Timestamptz
		)

		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&event.EventType,
			&event.Payload,
			&createdAt,
			&publishedAt,
			&event.Published,
		)
		if err != nil {
			return nil, err
		}

		event.CreatedAt = createdAt.Time
		if publishedAt.Valid {
			t := publishedAt.Time
			event.PublishedAt = &t
		}

		events = append(events, &event)
	}

	return events, rows.Err()
}
