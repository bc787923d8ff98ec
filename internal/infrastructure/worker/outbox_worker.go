package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clearhr/claimflow/internal/application/service"
)

// OutboxWorkerConfig holds configuration for the outbox worker
type OutboxWorkerConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() OutboxWorkerConfig {
	return OutboxWorkerConfig{
		PollInterval: 5 * time.Second,
		BatchSize:    20,
	}
}

// OutboxWorker drains the notification outbox on a fixed interval. Delivery
// failures stay queued and are retried on later polls.
type OutboxWorker struct {
	config        OutboxWorkerConfig
	notifications service.NotificationService
	logger        *zap.Logger

	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
	sentCount int
	lastError error
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	config OutboxWorkerConfig,
	notifications service.NotificationService,
	logger *zap.Logger,
) *OutboxWorker {
	return &OutboxWorker{
		config:        config,
		notifications: notifications,
		logger:        logger,
	}
}

// Start begins the worker polling loop
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("OutboxWorker started",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.pollLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *OutboxWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}

	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("OutboxWorker stopped", zap.Int("sent_count", w.sentCount))
	return nil
}

// Name returns the worker name for identification
func (w *OutboxWorker) Name() string {
	return "OutboxWorker"
}

func (w *OutboxWorker) pollLoop() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			sent, err := w.notifications.DispatchPending(w.ctx, w.config.BatchSize)

			w.mu.Lock()
			w.sentCount += sent
			w.lastError = err
			w.mu.Unlock()

			if err != nil && w.ctx.Err() == nil {
				w.logger.Error("Failed to dispatch pending notifications", zap.Error(err))
			}
		}
	}
}
