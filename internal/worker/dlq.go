package worker

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ejcarter/paperboy/internal/queue"
)

// DeadLetter is the NSQ message published when a task is quarantined after
// exhausting its retries. Version is bumped on any breaking envelope change.
type DeadLetter struct {
	Type           string `json:"type"`
	Version        string `json:"version"`
	At             string `json:"at"`
	Reason         string `json:"reason"`
	IssueID        string `json:"issue_id"`
	RecipientEmail string `json:"recipient_email"`
	RetryCount     int16  `json:"retry_count"`
}

const (
	deadLetterType    = "issue_delivery.dlq"
	deadLetterVersion = "v1"
)

// producer is satisfied by *nsq.Producer.
type producer interface {
	Publish(topic string, body []byte) error
}

// DeadLetterPublisher publishes quarantined tasks to an NSQ topic so they can
// be inspected or replayed out of band.
type DeadLetterPublisher struct {
	producer producer
	topic    string
}

func NewDeadLetterPublisher(p producer, topic string) *DeadLetterPublisher {
	return &DeadLetterPublisher{producer: p, topic: topic}
}

// Publish emits one dead-letter envelope for the given task.
func (d *DeadLetterPublisher) Publish(task queue.DeliveryTask, reason string) error {
	body, err := json.Marshal(DeadLetter{
		Type:           deadLetterType,
		Version:        deadLetterVersion,
		At:             time.Now().UTC().Format(time.RFC3339Nano),
		Reason:         reason,
		IssueID:        task.IssueID.String(),
		RecipientEmail: task.RecipientEmail,
		RetryCount:     task.RetryCount,
	})
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	if err := d.producer.Publish(d.topic, body); err != nil {
		return fmt.Errorf("publish dead letter: %w", err)
	}
	return nil
}
