package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ejcarter/paperboy/internal/logging"
)

type taskExecutor interface {
	TryExecuteTask(ctx context.Context) (Outcome, error)
}

const (
	defaultIdleBackoff  = 10 * time.Second
	defaultErrorBackoff = time.Second
)

// Worker polls the queue until its context is cancelled. A completed task
// triggers an immediate next poll; an empty queue backs off long, an error
// backs off short so transient database trouble is retried quickly.
type Worker struct {
	executor     taskExecutor
	idleBackoff  time.Duration
	errorBackoff time.Duration
	logger       *logging.Logger
}

func NewWorker(executor taskExecutor, opts ...WorkerOption) *Worker {
	w := &Worker{
		executor:     executor,
		idleBackoff:  defaultIdleBackoff,
		errorBackoff: defaultErrorBackoff,
		logger:       logging.New("paperboy-worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes delivery attempts until ctx is cancelled. It only returns the
// context's error; individual attempt failures are logged and absorbed.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Plain().
		WithField("idle_backoff", w.idleBackoff.String()).
		WithField("error_backoff", w.errorBackoff.String()).
		Info("delivery worker started")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := w.executor.TryExecuteTask(ctx)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return ctx.Err()
		case err != nil:
			w.logger.WithContext(ctx).WithError(err).Error("delivery attempt failed")
			if err := sleepContext(ctx, w.errorBackoff); err != nil {
				return err
			}
		case outcome == OutcomeEmptyQueue:
			if err := sleepContext(ctx, w.idleBackoff); err != nil {
				return err
			}
		}
	}
}
