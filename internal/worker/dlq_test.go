package worker

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejcarter/paperboy/internal/queue"
)

type fakeProducer struct {
	topic string
	body  []byte
	err   error
}

func (f *fakeProducer) Publish(topic string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topic = topic
	f.body = body
	return nil
}

func TestDeadLetterPublisher_Publish(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewDeadLetterPublisher(prod, "issue_deliveries_dlq")

	task := queue.DeliveryTask{
		IssueID:        uuid.New(),
		RecipientEmail: "reader@example.com",
		RetryCount:     5,
		NotBefore:      5,
	}
	require.NoError(t, pub.Publish(task, "task exhausted its retries"))
	assert.Equal(t, "issue_deliveries_dlq", prod.topic)

	var dl DeadLetter
	require.NoError(t, json.Unmarshal(prod.body, &dl))
	assert.Equal(t, "issue_delivery.dlq", dl.Type)
	assert.Equal(t, "v1", dl.Version)
	assert.Equal(t, task.IssueID.String(), dl.IssueID)
	assert.Equal(t, "reader@example.com", dl.RecipientEmail)
	assert.Equal(t, int16(5), dl.RetryCount)
	assert.Equal(t, "task exhausted its retries", dl.Reason)
	assert.NotEmpty(t, dl.At)
}

func TestDeadLetterPublisher_ProducerError(t *testing.T) {
	prod := &fakeProducer{err: errors.New("nsqd unreachable")}
	pub := NewDeadLetterPublisher(prod, "issue_deliveries_dlq")

	err := pub.Publish(queue.DeliveryTask{IssueID: uuid.New()}, "reason")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish dead letter")
}
