package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed task store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ClaimOne atomically claims one pending task not held by another worker.
// The row lock is taken with SKIP LOCKED, so contended rows are passed over
// instead of waited on; with every row claimed the queue looks empty and
// (nil, nil) is returned. The returned claim owns the open transaction.
func (s *Store) ClaimOne(ctx context.Context) (TaskClaim, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim transaction: %w", err)
	}

	var t DeliveryTask
	err = tx.QueryRow(ctx, `
		SELECT issue_id, recipient_email, retry_count, not_before
		FROM issue_delivery_queue
		FOR UPDATE
		SKIP LOCKED
		LIMIT 1`,
	).Scan(&t.IssueID, &t.RecipientEmail, &t.RetryCount, &t.NotBefore)
	if errors.Is(err, pgx.ErrNoRows) {
		_ = tx.Rollback(ctx)
		return nil, nil
	}
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, fmt.Errorf("select pending task: %w", err)
	}

	return &Claim{tx: tx, task: t}, nil
}

// Enqueue inserts a new pending task in its own transaction, independent of
// any claim.
func (s *Store) Enqueue(ctx context.Context, t DeliveryTask) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO issue_delivery_queue (issue_id, recipient_email, retry_count, not_before)
		VALUES ($1, $2, $3, $4)`,
		t.IssueID, t.RecipientEmail, t.RetryCount, t.NotBefore,
	)
	if err != nil {
		return fmt.Errorf("enqueue delivery task: %w", err)
	}
	return nil
}

// Depth reports the number of rows currently in the queue. Feeds the backlog
// gauge only; it is not part of the delivery path.
func (s *Store) Depth(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM issue_delivery_queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count queue depth: %w", err)
	}
	return n, nil
}

// Claim is a claimed task backed by an open Postgres transaction holding the
// row lock.
type Claim struct {
	tx    pgx.Tx
	task  DeliveryTask
	spent bool
}

func (c *Claim) Task() DeliveryTask {
	return c.task
}

// Delete removes the claimed row and commits the claim's transaction. The
// claim is spent afterwards regardless of the result.
func (c *Claim) Delete(ctx context.Context) error {
	c.spent = true
	if _, err := c.tx.Exec(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE issue_id = $1 AND recipient_email = $2`,
		c.task.IssueID, c.task.RecipientEmail,
	); err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("delete delivery task: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit task deletion: %w", err)
	}
	return nil
}

// DeleteAndRequeue removes the claimed row and inserts its replacement with
// retry_count+1 and not_before+1 in the same transaction. Doing both under
// one commit means a crash can never lose the task between the two steps.
func (c *Claim) DeleteAndRequeue(ctx context.Context) error {
	c.spent = true
	if _, err := c.tx.Exec(ctx, `
		DELETE FROM issue_delivery_queue
		WHERE issue_id = $1 AND recipient_email = $2`,
		c.task.IssueID, c.task.RecipientEmail,
	); err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("delete delivery task: %w", err)
	}
	next := c.task.Requeued()
	if _, err := c.tx.Exec(ctx, `
		INSERT INTO issue_delivery_queue (issue_id, recipient_email, retry_count, not_before)
		VALUES ($1, $2, $3, $4)`,
		next.IssueID, next.RecipientEmail, next.RetryCount, next.NotBefore,
	); err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("requeue delivery task: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit task requeue: %w", err)
	}
	return nil
}

// Release rolls back an unspent claim so the row becomes claimable again.
// No-op on a spent claim.
func (c *Claim) Release(ctx context.Context) {
	if !c.spent {
		_ = c.tx.Rollback(ctx)
		c.spent = true
	}
}
