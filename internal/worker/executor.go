// Package worker runs the issue delivery loop: claim a task, attempt the
// send, and settle the task exactly once per attempt. Delivery is at least
// once; a crash between a successful send and the queue commit means the next
// worker sends that issue again.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ejcarter/paperboy/internal/domain"
	"github.com/ejcarter/paperboy/internal/issues"
	"github.com/ejcarter/paperboy/internal/logging"
	"github.com/ejcarter/paperboy/internal/mailer"
	"github.com/ejcarter/paperboy/internal/metrics"
	"github.com/ejcarter/paperboy/internal/queue"
	"github.com/ejcarter/paperboy/internal/tracing"
)

// Outcome reports what a single delivery attempt found.
type Outcome int

const (
	// OutcomeTaskCompleted means a task was claimed and settled; the caller
	// should poll again immediately.
	OutcomeTaskCompleted Outcome = iota
	// OutcomeEmptyQueue means no task was available; the caller should back
	// off before polling again.
	OutcomeEmptyQueue
)

// ErrRetriesExhausted marks a task quarantined at the retry ceiling.
var ErrRetriesExhausted = errors.New("task exhausted its retries")

// TaskStore claims pending delivery tasks.
type TaskStore interface {
	ClaimOne(ctx context.Context) (queue.TaskClaim, error)
}

// IssueStore loads published issue content.
type IssueStore interface {
	Get(ctx context.Context, id uuid.UUID) (issues.Issue, error)
}

// DeadLetters receives tasks quarantined after exhausting retries.
type DeadLetters interface {
	Publish(task queue.DeliveryTask, reason string) error
}

const defaultMaxRetries = 5

// Executor performs single delivery attempts. It holds no per-task state and
// is safe to share across goroutines.
type Executor struct {
	store       TaskStore
	issues      IssueStore
	sender      mailer.Sender
	deadLetters DeadLetters
	maxRetries  int16
	backoffUnit time.Duration
	logger      *logging.Logger
}

func NewExecutor(store TaskStore, issueStore IssueStore, sender mailer.Sender, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:       store,
		issues:      issueStore,
		sender:      sender,
		maxRetries:  defaultMaxRetries,
		backoffUnit: time.Second,
		logger:      logging.New("paperboy-worker"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// TryExecuteTask claims at most one task and runs it to a settled state. The
// claim is held open for the whole attempt, so a crash anywhere in here rolls
// the task back into the queue.
func (e *Executor) TryExecuteTask(ctx context.Context) (Outcome, error) {
	claim, err := e.store.ClaimOne(ctx)
	if err != nil {
		return OutcomeEmptyQueue, fmt.Errorf("claim task: %w", err)
	}
	if claim == nil {
		return OutcomeEmptyQueue, nil
	}
	defer claim.Release(ctx)

	task := claim.Task()
	ctx, span := tracing.StartSpan(ctx, "worker.deliver_issue",
		attribute.String("newsletter.issue_id", task.IssueID.String()),
		attribute.String("newsletter.recipient", task.RecipientEmail),
		attribute.Int("newsletter.retry_count", int(task.RetryCount)),
	)
	defer span.End()

	if task.RetryCount >= e.maxRetries {
		return OutcomeTaskCompleted, e.quarantine(ctx, claim, task)
	}

	// Linear backoff: a task requeued n times waits n units before its next
	// attempt. The sleep aborts cleanly on shutdown, releasing the claim.
	if task.NotBefore > 0 {
		if err := sleepContext(ctx, time.Duration(task.NotBefore)*e.backoffUnit); err != nil {
			return OutcomeTaskCompleted, err
		}
	}

	email, err := domain.ParseSubscriberEmail(task.RecipientEmail)
	if err != nil {
		// A stored email that fails validation will never succeed; drop the
		// task instead of burning retries on it.
		e.logger.WithContext(ctx).
			WithIssue(task.IssueID.String()).
			WithSubscriber(task.RecipientEmail).
			WithError(err).
			Error("skipping delivery to invalid subscriber email")
		if err := claim.Delete(ctx); err != nil {
			return OutcomeTaskCompleted, fmt.Errorf("delete invalid-email task: %w", err)
		}
		metrics.RecordDelivery("invalid_email", 0)
		return OutcomeTaskCompleted, nil
	}

	issue, err := e.issues.Get(ctx, task.IssueID)
	if err != nil {
		tracing.SetSpanError(ctx, err)
		return OutcomeTaskCompleted, fmt.Errorf("load issue %s: %w", task.IssueID, err)
	}

	start := time.Now()
	sendErr := e.sender.Send(ctx, email.String(), issue.Title, issue.HTMLContent, issue.TextContent)
	elapsed := time.Since(start)

	if sendErr != nil {
		e.logger.WithContext(ctx).
			WithIssue(task.IssueID.String()).
			WithSubscriber(email.String()).
			WithRetries(int(task.RetryCount)).
			WithError(sendErr).
			Warn("delivery failed, requeueing task")
		if err := claim.DeleteAndRequeue(ctx); err != nil {
			return OutcomeTaskCompleted, fmt.Errorf("requeue task: %w", err)
		}
		metrics.RecordRetry()
		metrics.RecordDelivery("requeued", elapsed)
		return OutcomeTaskCompleted, nil
	}

	if err := claim.Delete(ctx); err != nil {
		return OutcomeTaskCompleted, fmt.Errorf("delete delivered task: %w", err)
	}
	metrics.RecordDelivery("delivered", elapsed)
	e.logger.WithContext(ctx).
		WithIssue(task.IssueID.String()).
		WithSubscriber(email.String()).
		Info("newsletter issue delivered")
	return OutcomeTaskCompleted, nil
}

// quarantine removes a task that hit the retry ceiling and publishes it to
// the dead-letter topic when one is configured.
func (e *Executor) quarantine(ctx context.Context, claim queue.TaskClaim, task queue.DeliveryTask) error {
	if err := claim.Delete(ctx); err != nil {
		return fmt.Errorf("delete exhausted task: %w", err)
	}
	metrics.RecordDLQ()
	metrics.RecordDelivery("exhausted", 0)

	entry := e.logger.WithContext(ctx).
		WithIssue(task.IssueID.String()).
		WithSubscriber(task.RecipientEmail).
		WithRetries(int(task.RetryCount))

	if e.deadLetters != nil {
		if err := e.deadLetters.Publish(task, ErrRetriesExhausted.Error()); err != nil {
			entry.WithError(err).Error("failed to publish dead letter for exhausted task")
		}
	}
	entry.Error("task removed after exhausting retries")

	return fmt.Errorf("%w: issue %s, recipient %s, %d retries",
		ErrRetriesExhausted, task.IssueID, task.RecipientEmail, task.RetryCount)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
