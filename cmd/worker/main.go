package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ejcarter/paperboy/internal/config"
	"github.com/ejcarter/paperboy/internal/db"
	"github.com/ejcarter/paperboy/internal/health"
	"github.com/ejcarter/paperboy/internal/issues"
	"github.com/ejcarter/paperboy/internal/logging"
	"github.com/ejcarter/paperboy/internal/mailer"
	"github.com/ejcarter/paperboy/internal/metrics"
	"github.com/ejcarter/paperboy/internal/queue"
	"github.com/ejcarter/paperboy/internal/tracing"
	"github.com/ejcarter/paperboy/internal/worker"
)

const serviceName = "paperboy-worker"

func main() {
	cfg := config.FromEnv()
	logger := logging.New(serviceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	shutdown, err := tracing.InitTracing(ctx, serviceName)
	if err != nil {
		logger.Plain().WithError(err).Fatal("failed to initialize tracing")
	}
	defer shutdown()

	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Plain().WithError(err).Fatal("db connect failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Plain().WithError(err).Fatal("db migrations failed")
	}

	// Prom metrics
	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	// HTTP health/metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.HTTPHandler(serviceName, pool))
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	httpSrv := &http.Server{Addr: cfg.Worker.HTTPPort, Handler: mux}
	go func() {
		logger.Plain().WithField("addr", httpSrv.Addr).Info("worker HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Plain().WithError(err).Fatal("worker HTTP server failed")
		}
	}()

	store := queue.NewStore(pool)
	issueRepo := issues.NewRepository(pool)

	sender, err := selectSender(cfg.Mailer)
	if err != nil {
		logger.Plain().WithError(err).Fatal("mailer setup failed")
	}

	execOpts := []worker.ExecutorOption{
		worker.WithMaxRetries(cfg.Worker.MaxRetries),
		worker.WithExecutorLogger(logger),
	}

	// DLQ producer
	if cfg.DeadLetter.Publish {
		producer, err := nsq.NewProducer(cfg.DeadLetter.NsqdTCPAddr, nsq.NewConfig())
		if err != nil {
			logger.Plain().WithError(err).Fatal("nsq producer for DLQ creation failed")
		}
		defer producer.Stop()
		execOpts = append(execOpts,
			worker.WithDeadLetters(worker.NewDeadLetterPublisher(producer, cfg.DeadLetter.Topic)))
	}

	executor := worker.NewExecutor(store, issueRepo, sender, execOpts...)
	loop := worker.NewWorker(executor,
		worker.WithIdleBackoff(cfg.Worker.IdleBackoff),
		worker.WithErrorBackoff(cfg.Worker.ErrorBackoff),
		worker.WithWorkerLogger(logger),
	)

	startDepthMonitor(ctx, store, cfg.Worker.DepthInterval)

	logger.Plain().Info("worker service started")
	if err := loop.Run(ctx); err != nil {
		logger.Plain().WithError(err).Info("delivery loop stopped")
	}

	logger.Plain().Info("shutting down worker service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	logger.Plain().Info("worker service stopped")
}

// selectSender picks Postmark when a server token is configured and falls
// back to the file-sink sender for local development.
func selectSender(cfg config.Mailer) (mailer.Sender, error) {
	if cfg.PostmarkServerToken != "" {
		return mailer.NewPostmarkSender(cfg)
	}
	return mailer.NewDevSender(cfg.DevOutboxDir), nil
}

type depthReporter interface {
	Depth(ctx context.Context) (int64, error)
}

// startDepthMonitor refreshes the queue depth gauge until ctx is cancelled.
func startDepthMonitor(ctx context.Context, store depthReporter, interval time.Duration) {
	go func() {
		logger := logging.New(serviceName + "-monitor")
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				depth, err := store.Depth(ctx)
				if err != nil {
					logger.Plain().WithError(err).Error("failed to read queue depth")
					continue
				}
				metrics.UpdateQueueDepth(float64(depth))
			}
		}
	}()
}
