package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/site-cms/internal/events"
)

type recordingHandler struct {
	mu      sync.Mutex
	handled []events.Event
	release chan struct{}
	err     error
}

func (h *recordingHandler) EventTypes() []events.EventType {
	return []events.EventType{events.EventContactSubmitted, events.EventUserCreated}
}

func (h *recordingHandler) Handle(_ context.Context, event events.Event) error {
	if h.release != nil {
		<-h.release
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestWorkerDeliversSubscribedEvents(t *testing.T) {
	handler := &recordingHandler{}
	dispatcher := events.NewInMemoryDispatcher()
	w := StartNotificationWorker(dispatcher, handler, Config{Workers: 2, QueueSize: 10}, nil)

	ctx := context.Background()
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventContactSubmitted, "c-1", nil, nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventUserCreated, "u-1", nil, nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.New(events.EventPasswordResetRequested, "u-1", nil, nil)))

	require.NoError(t, w.Stop(ctx))
	assert.Equal(t, 2, handler.count())
}

func TestWorkerQueueFull(t *testing.T) {
	handler := &recordingHandler{release: make(chan struct{})}
	w := NewNotificationWorker(handler, Config{Workers: 1, QueueSize: 1}, nil)

	ctx := context.Background()
	require.NoError(t, w.Enqueue(ctx, events.New(events.EventUserCreated, "1", nil, nil)))
	assert.ErrorIs(t, w.Enqueue(ctx, events.New(events.EventUserCreated, "2", nil, nil)), ErrQueueFull)

	w.Start()
	close(handler.release)
	require.NoError(t, w.Stop(ctx))
	assert.Equal(t, 1, handler.count())
}

func TestWorkerStop(t *testing.T) {
	handler := &recordingHandler{release: make(chan struct{})}
	w := NewNotificationWorker(handler, Config{Workers: 1, QueueSize: 5}, nil)
	w.Start()

	ctx := context.Background()
	require.NoError(t, w.Enqueue(ctx, events.New(events.EventUserCreated, "1", nil, nil)))

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Stop(timeout), context.DeadlineExceeded)
	assert.ErrorIs(t, w.Enqueue(ctx, events.New(events.EventUserCreated, "2", nil, nil)), ErrStopped)

	close(handler.release)
	require.NoError(t, w.Stop(ctx))
	assert.Equal(t, 1, handler.count())
}

func TestWorkerLogsHandlerErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	handler := &recordingHandler{err: errors.New("smtp timeout")}
	w := NewNotificationWorker(handler, Config{Workers: 1, QueueSize: 1}, zap.New(core))
	w.Start()

	require.NoError(t, w.Enqueue(context.Background(), events.New(events.EventUserCreated, "1", nil, nil)))
	require.NoError(t, w.Stop(context.Background()))

	entries := logs.FilterMessage("notification failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "user_created", entries[0].ContextMap()["event_type"])
}
