package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/authgw/gateway/pkg/logger"
)

var (
	ErrQueueFull      = errors.New("audit: queue full, event dropped")
	ErrRecorderClosed = errors.New("audit: recorder closed")
)

// AsyncRecorder queues events for a single background writer, so Record never waits on
// the underlying sink. When the queue is full the event is dropped and Record says so.
type AsyncRecorder struct {
	next    Recorder
	timeout time.Duration
	queue   chan Event
	done    chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsyncRecorder starts the writer. Each write to next gets its own timeout, independent
// of the request that produced the event.
func NewAsyncRecorder(next Recorder, buffer int, timeout time.Duration) *AsyncRecorder {
	a := &AsyncRecorder{
		next:    next,
		timeout: timeout,
		queue:   make(chan Event, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncRecorder) Record(_ context.Context, e Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrRecorderClosed
	}
	select {
	case a.queue <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits until the queued ones have been written.
func (a *AsyncRecorder) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}

func (a *AsyncRecorder) run() {
	defer close(a.done)
	for e := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Record(ctx, e); err != nil {
			logger.Warnf("audit: failed to write %s event for user %s: %v", e.Type, e.UserID, err)
		}
		cancel()
	}
}
