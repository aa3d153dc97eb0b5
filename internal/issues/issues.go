// Package issues reads newsletter issue content. Issues are immutable once
// published; the delivery worker only ever reads them.
package issues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates referential inconsistency between the delivery queue
// and issue storage: a queued task points at an issue that does not exist.
var ErrNotFound = errors.New("newsletter issue not found")

type Issue struct {
	ID          uuid.UUID
	Title       string
	HTMLContent string
	TextContent string
	PublishedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get looks up an issue by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Issue, error) {
	issue := Issue{ID: id}
	err := r.pool.QueryRow(ctx, `
		SELECT title, html_content, text_content, published_at
		FROM newsletter_issues
		WHERE issue_id = $1`,
		id,
	).Scan(&issue.Title, &issue.HTMLContent, &issue.TextContent, &issue.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Issue{}, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Issue{}, fmt.Errorf("fetch issue %s: %w", id, err)
	}
	return issue, nil
}
