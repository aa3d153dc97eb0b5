package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedStep struct {
	outcome Outcome
	err     error
}

// scriptedExecutor replays a fixed sequence of attempt results, then reports
// an empty queue forever.
type scriptedExecutor struct {
	mu    sync.Mutex
	steps []scriptedStep
	calls int
}

func (s *scriptedExecutor) TryExecuteTask(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls < len(s.steps) {
		step := s.steps[s.calls]
		s.calls++
		return step.outcome, step.err
	}
	s.calls++
	return OutcomeEmptyQueue, nil
}

func (s *scriptedExecutor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func runWorker(t *testing.T, w *Worker, d time.Duration) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return w.Run(ctx)
}

func TestRun_StopsOnCancellation(t *testing.T) {
	exec := &scriptedExecutor{}
	w := NewWorker(exec, WithIdleBackoff(time.Millisecond), WithErrorBackoff(time.Millisecond))

	err := runWorker(t, w, 50*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, exec.callCount(), 1, "loop should keep polling until cancelled")
}

func TestRun_CompletedTasksPollImmediately(t *testing.T) {
	exec := &scriptedExecutor{steps: []scriptedStep{
		{outcome: OutcomeTaskCompleted},
		{outcome: OutcomeTaskCompleted},
		{outcome: OutcomeTaskCompleted},
	}}
	// Idle backoff far beyond the deadline: only completed-task polls can
	// drain the script before the first empty-queue sleep.
	w := NewWorker(exec, WithIdleBackoff(time.Hour))

	err := runWorker(t, w, 100*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, exec.callCount(), 4, "three completions plus the empty poll")
}

func TestRun_ErrorsBackOffAndContinue(t *testing.T) {
	exec := &scriptedExecutor{steps: []scriptedStep{
		{outcome: OutcomeTaskCompleted, err: errors.New("database went away")},
		{outcome: OutcomeTaskCompleted},
	}}
	w := NewWorker(exec, WithIdleBackoff(time.Millisecond), WithErrorBackoff(time.Millisecond))

	err := runWorker(t, w, 50*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, exec.callCount(), 2, "an attempt error must not stop the loop")
}

func TestRun_ContextErrorFromAttemptStopsLoop(t *testing.T) {
	exec := &scriptedExecutor{steps: []scriptedStep{
		{outcome: OutcomeTaskCompleted, err: context.Canceled},
	}}
	w := NewWorker(exec, WithIdleBackoff(time.Hour), WithErrorBackoff(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewWorker_Defaults(t *testing.T) {
	w := NewWorker(&scriptedExecutor{})
	assert.Equal(t, 10*time.Second, w.idleBackoff)
	assert.Equal(t, time.Second, w.errorBackoff)
}
