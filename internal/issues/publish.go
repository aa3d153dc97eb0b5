package issues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewIssue is the content of an issue about to be published.
type NewIssue struct {
	Title       string
	HTMLContent string
	TextContent string
}

var ErrEmptyIssue = errors.New("issue title and both content bodies are required")

// Publisher is the producer side of the delivery pipeline: it stores a new
// issue and fans out one delivery task per confirmed subscriber.
type Publisher struct {
	pool *pgxpool.Pool
}

func NewPublisher(pool *pgxpool.Pool) *Publisher {
	return &Publisher{pool: pool}
}

// Publish inserts the issue and enqueues its delivery tasks in a single
// transaction, so an issue is never visible without its queue rows or vice
// versa. Returns the new issue id and the number of tasks enqueued.
func (p *Publisher) Publish(ctx context.Context, in NewIssue) (uuid.UUID, int64, error) {
	if in.Title == "" || in.HTMLContent == "" || in.TextContent == "" {
		return uuid.Nil, 0, ErrEmptyIssue
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("begin publish transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id := uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO newsletter_issues (issue_id, title, html_content, text_content, published_at)
		VALUES ($1, $2, $3, $4, $5)`,
		id, in.Title, in.HTMLContent, in.TextContent, time.Now().UTC(),
	); err != nil {
		return uuid.Nil, 0, fmt.Errorf("insert issue: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO issue_delivery_queue (issue_id, recipient_email, retry_count, not_before)
		SELECT $1, email, 0, 0
		FROM subscriptions
		WHERE status = 'confirmed'`,
		id,
	)
	if err != nil {
		return uuid.Nil, 0, fmt.Errorf("enqueue delivery tasks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, 0, fmt.Errorf("commit publish transaction: %w", err)
	}
	return id, tag.RowsAffected(), nil
}
