package worker

import (
	"time"

	"github.com/ejcarter/paperboy/internal/logging"
)

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxRetries sets the retry ceiling after which a task is quarantined.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.maxRetries = int16(n)
		}
	}
}

// WithBackoffUnit sets the duration one NotBefore step is worth. Production
// uses the one second default; tests shrink it.
func WithBackoffUnit(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.backoffUnit = d
		}
	}
}

// WithDeadLetters routes exhausted tasks to the given publisher.
func WithDeadLetters(d DeadLetters) ExecutorOption {
	return func(e *Executor) {
		e.deadLetters = d
	}
}

// WithExecutorLogger overrides the executor's logger.
func WithExecutorLogger(l *logging.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WorkerOption configures a Worker loop.
type WorkerOption func(*Worker)

// WithIdleBackoff sets how long the loop sleeps after finding the queue empty.
func WithIdleBackoff(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.idleBackoff = d
		}
	}
}

// WithErrorBackoff sets how long the loop sleeps after an attempt errors.
func WithErrorBackoff(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.errorBackoff = d
		}
	}
}

// WithWorkerLogger overrides the loop's logger.
func WithWorkerLogger(l *logging.Logger) WorkerOption {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
