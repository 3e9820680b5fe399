package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxRetries is how many dispatch attempts an event gets before it is parked as failed.
const MaxRetries = 5

// Execer is satisfied by pgx.Tx, *pgxpool.Pool and *pgx.Conn.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Append writes ev inside the caller's transaction so it commits or rolls back
// together with the business rows.
func Append(ctx context.Context, tx Execer, ev Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		ev.AggregateType, ev.AggregateID, ev.Type, ev.Payload, ev.Headers, ev.Traceparent)
	if err != nil {
		return fmt.Errorf("append outbox %s: %w", ev.Type, err)
	}
	return nil
}

type PgStore struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewPgStore(log *slog.Logger, pool *pgxpool.Pool) *PgStore {
	return &PgStore{log: log, pool: pool}
}

// LockBatch claims pending events, plus in-progress ones whose lease expired
// because a relay died mid-batch.
func (s *PgStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at, retry_count
		FROM outbox
		WHERE status = 'pending'
		   OR (status = 'in_progress' AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, err
	}

	var events []Event
	for rows.Next() {
		var ev Event
		var headers map[string]string
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &headers, &ev.Traceparent, &ev.CreatedAt, &ev.RetryCount); err != nil {
			rows.Close()
			return nil, err
		}
		ev.Headers = headers
		ev.Status = StatusInProgress
		ev.RelayID = relayID
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	_, err = tx.Exec(ctx, `
		UPDATE outbox
		SET status = 'in_progress', relay_id = $1, lease_until = now() + make_interval(secs => $2)
		WHERE id = ANY($3)`, relayID, lease.Seconds(), ids)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *PgStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status = 'sent', sent_at = now() WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		s.log.Warn("outbox mark sent touched no rows", "ids", ids)
	}
	return nil
}

// MarkFailed puts the event back in the queue until it has used up MaxRetries.
func (s *PgStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE outbox
		SET status = CASE WHEN retry_count + 1 >= $3 THEN 'failed' ELSE 'pending' END,
		    last_error = $2,
		    retry_count = retry_count + 1
		WHERE id = $1`, id, errMsg, MaxRetries)
	return err
}
