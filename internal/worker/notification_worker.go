package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/site-cms/internal/events"
)

var (
	// ErrQueueFull is returned to the publisher when the backlog is at capacity.
	ErrQueueFull = errors.New("notification queue full")
	// ErrStopped is returned for events published after Stop.
	ErrStopped = errors.New("notification worker stopped")
)

// Handler processes notification events.
type Handler interface {
	EventTypes() []events.EventType
	Handle(ctx context.Context, event events.Event) error
}

// Config sizes the worker pool.
type Config struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// NotificationWorker moves notification delivery off the request path.
type NotificationWorker struct {
	handler Handler
	cfg     Config
	logger  *zap.Logger

	queue  chan events.Event
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewNotificationWorker builds a stopped worker.
func NewNotificationWorker(handler Handler, cfg Config, logger *zap.Logger) *NotificationWorker {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		handler: handler,
		cfg:     cfg,
		logger:  logger,
		queue:   make(chan events.Event, cfg.QueueSize),
	}
}

// StartNotificationWorker subscribes a new worker to every event the handler
// understands and starts its goroutines.
func StartNotificationWorker(dispatcher events.Dispatcher, handler Handler, cfg Config, logger *zap.Logger) *NotificationWorker {
	w := NewNotificationWorker(handler, cfg, logger)
	w.Subscribe(dispatcher)
	w.Start()
	return w
}

// Subscribe registers the worker's queue as the dispatcher handler.
func (w *NotificationWorker) Subscribe(dispatcher events.Dispatcher) {
	for _, eventType := range w.handler.EventTypes() {
		dispatcher.Subscribe(eventType, w.Enqueue)
	}
}

// Start launches the worker goroutines.
func (w *NotificationWorker) Start() {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Enqueue queues event without blocking.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops accepting events and waits for the backlog to drain or ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *NotificationWorker) run() {
	defer w.wg.Done()
	for event := range w.queue {
		w.process(event)
	}
}

func (w *NotificationWorker) process(event events.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.SendTimeout)
	defer cancel()

	start := time.Now()
	if err := w.handler.Handle(ctx, event); err != nil {
		w.logger.Error("notification failed",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}
	w.logger.Debug("notification sent",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.Duration("took", time.Since(start)),
	)
}
