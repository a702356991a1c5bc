package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// MultiNotifier sends notifications to multiple notifiers.
type MultiNotifier struct {
	Notifiers []Notifier
	Logger    *slog.Logger
}

// NewMultiNotifier creates a notifier that fans out to multiple notifiers.
// A failing notifier does not stop the others.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{
		Notifiers: notifiers,
		Logger:    slog.Default(),
	}
}

// Notify implements Notifier. It returns every failure joined.
func (n *MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, notifier := range n.Notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
			if n.Logger != nil {
				n.Logger.Warn("notifier failed",
					"error", err,
					"event_type", event.Type,
				)
			}
		}
	}
	return errors.Join(errs...)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(ctx context.Context, event Event) error {
	return nil
}

// AsyncNotifier hands events to a background worker so that slow
// webhooks never hold up an enrichment run. Events are dropped when the
// queue is full.
type AsyncNotifier struct {
	next   Notifier
	logger *slog.Logger
	queue  chan Event
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// DefaultQueueSize is the AsyncNotifier queue length used when size <= 0.
const DefaultQueueSize = 64

// NewAsyncNotifier starts a worker that forwards events to next. Call
// Close to drain the queue and stop the worker.
func NewAsyncNotifier(next Notifier, size int, logger *slog.Logger) *AsyncNotifier {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &AsyncNotifier{
		next:   next,
		logger: logger,
		queue:  make(chan Event, size),
	}
	a.wg.Add(1)
	go a.run()
	return a
}

func (a *AsyncNotifier) run() {
	defer a.wg.Done()
	for event := range a.queue {
		if err := a.next.Notify(context.Background(), event); err != nil {
			a.logger.Warn("async notification failed", "error", err, "event_type", event.Type)
		}
	}
}

// Notify implements Notifier. It never blocks.
func (a *AsyncNotifier) Notify(ctx context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be sent.
func (a *AsyncNotifier) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

// AsyncNotifier errors.
var (
	ErrClosed    = errors.New("notifier closed")
	ErrQueueFull = errors.New("notification queue full")
)
