// Package queue is the durable task store for pending issue deliveries. It is
// the single source of truth for queue state; every mutation happens under a
// claim's transaction except Enqueue, which stands alone.
package queue

import (
	"context"

	"github.com/google/uuid"
)

// DeliveryTask is one pending (issue, subscriber) delivery obligation.
// RetryCount starts at zero and NotBefore is the number of seconds a worker
// must wait before acting on the task; both grow by exactly one per transient
// failure.
type DeliveryTask struct {
	IssueID        uuid.UUID `json:"issue_id"`
	RecipientEmail string    `json:"recipient_email"`
	RetryCount     int16     `json:"retry_count"`
	NotBefore      int16     `json:"not_before"`
}

// Requeued returns the replacement task enqueued after a transient failure.
func (t DeliveryTask) Requeued() DeliveryTask {
	return DeliveryTask{
		IssueID:        t.IssueID,
		RecipientEmail: t.RecipientEmail,
		RetryCount:     t.RetryCount + 1,
		NotBefore:      t.NotBefore + 1,
	}
}

// TaskClaim is the exclusive right to mutate one claimed task. It is backed by
// a transactional scope: exactly one of Delete or DeleteAndRequeue may be
// called, after which the claim is spent. Release rolls back an unspent claim
// and is safe to defer unconditionally.
type TaskClaim interface {
	Task() DeliveryTask
	Delete(ctx context.Context) error
	DeleteAndRequeue(ctx context.Context) error
	Release(ctx context.Context)
}
