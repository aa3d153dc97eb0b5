package queue

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory task store with the same claim semantics as the
// Postgres Store: exclusive, non-blocking claims and atomic delete/requeue.
// Used by tests and local development; not durable.
type MemoryStore struct {
	mu   sync.Mutex
	rows []*memoryRow
}

type memoryRow struct {
	task    DeliveryTask
	claimed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ClaimOne claims the first unclaimed row, or returns (nil, nil) when every
// row is claimed or the queue is empty. Never blocks on a contended row.
func (m *MemoryStore) ClaimOne(ctx context.Context) (TaskClaim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if !row.claimed {
			row.claimed = true
			return &memoryClaim{store: m, row: row}, nil
		}
	}
	return nil, nil
}

// Enqueue appends a new pending task.
func (m *MemoryStore) Enqueue(ctx context.Context, t DeliveryTask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, &memoryRow{task: t})
	return nil
}

// Depth reports the number of rows, claimed or not.
func (m *MemoryStore) Depth(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

// Tasks returns a snapshot of all rows currently in the store.
func (m *MemoryStore) Tasks() []DeliveryTask {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]DeliveryTask, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row.task)
	}
	return out
}

func (m *MemoryStore) remove(row *memoryRow) {
	for i, r := range m.rows {
		if r == row {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return
		}
	}
}

type memoryClaim struct {
	store *MemoryStore
	row   *memoryRow
	spent bool
}

func (c *memoryClaim) Task() DeliveryTask {
	return c.row.task
}

func (c *memoryClaim) Delete(ctx context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.spent = true
	c.store.remove(c.row)
	return nil
}

func (c *memoryClaim) DeleteAndRequeue(ctx context.Context) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.spent = true
	c.store.remove(c.row)
	c.store.rows = append(c.store.rows, &memoryRow{task: c.row.task.Requeued()})
	return nil
}

func (c *memoryClaim) Release(ctx context.Context) {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if !c.spent {
		c.row.claimed = false
		c.spent = true
	}
}
