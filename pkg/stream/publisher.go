package stream

import (
	"context"
	"errors"
	"sync"
	"time"

	"ai-tutor-be/internal/pkg/logger"
)

// ErrStreamClosed is returned by Next once the terminal event has been
// delivered and the stream is fully drained.
var ErrStreamClosed = errors.New("stream closed")

const defaultKeepAlive = 30 * time.Second

// itemBuffer bounds the persistence worker channel. The delivery queue is
// unbounded; only the side channel is bounded, and overflow there drops the
// forward (with a warning) rather than ever blocking delivery.
const itemBuffer = 64

// Publisher is a per-session, ordered, single-consumer event channel. The
// orchestrator publishes synchronously and never blocks on the consumer;
// the consumer drains lazily via Next. Closing is decided solely by the
// terminal event type.
type Publisher struct {
	sessionID string
	keepAlive time.Duration
	logger    logger.ILogger

	mu       sync.Mutex
	queue    []Event
	notify   chan struct{} // buffered(1) wakeup for a blocked Next
	closed   bool          // set when the terminal event is queued
	drained  bool          // set when the terminal event has been consumed
	items    chan Event    // unit-complete side channel
	workerWG sync.WaitGroup
}

type Option func(*Publisher)

func WithKeepAlive(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.keepAlive = d
		}
	}
}

func NewPublisher(sessionID string, log logger.ILogger, opts ...Option) *Publisher {
	p := &Publisher{
		sessionID: sessionID,
		keepAlive: defaultKeepAlive,
		logger:    log,
		notify:    make(chan struct{}, 1),
		items:     make(chan Event, itemBuffer),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) SessionID() string {
	return p.sessionID
}

// Emit wraps the payload in an envelope and publishes it. Satisfies the
// pipeline's event sink without the pipeline knowing about envelopes.
func (p *Publisher) Emit(eventType string, payload map[string]interface{}) {
	p.Publish(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		SessionID: p.sessionID,
		Payload:   payload,
	})
}

// Publish appends to the queue in FIFO order. Publishing after the stream is
// closed is a logged no-op; it must never panic. Unit-complete events are
// additionally forwarded to the persistence worker channel after they are
// queued, so delivery never depends on persistence.
func (p *Publisher) Publish(evt Event) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.Warn("STREAM", "Publish on closed stream ignored", map[string]interface{}{
			"session_id": p.sessionID,
			"event_type": evt.Type,
		})
		return
	}
	p.queue = append(p.queue, evt)
	if evt.Terminal() {
		p.closed = true
	}
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}

	if evt.unitComplete() {
		select {
		case p.items <- evt:
		default:
			p.logger.Warn("STREAM", "Item channel full, persistence forward dropped", map[string]interface{}{
				"session_id": p.sessionID,
				"event_type": evt.Type,
			})
		}
	}

	if evt.Terminal() {
		close(p.items)
	}
}

// Next blocks for the next event, up to the keepalive interval. On idle
// timeout it returns a synthetic keepalive event and keeps the stream open.
// Context cancellation propagates as an error so the transport can clean up.
// After the terminal event has been returned, Next returns ErrStreamClosed.
func (p *Publisher) Next(ctx context.Context) (Event, error) {
	for {
		p.mu.Lock()
		if p.drained {
			p.mu.Unlock()
			return Event{}, ErrStreamClosed
		}
		if len(p.queue) > 0 {
			evt := p.queue[0]
			p.queue = p.queue[1:]
			if evt.Terminal() {
				p.drained = true
			}
			p.mu.Unlock()
			return evt, nil
		}
		p.mu.Unlock()

		timer := time.NewTimer(p.keepAlive)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Event{}, ctx.Err()
		case <-p.notify:
			timer.Stop()
		case <-timer.C:
			return Event{
				Type:      EventKeepAlive,
				Timestamp: time.Now().UTC(),
				SessionID: p.sessionID,
			}, nil
		}
	}
}

// ItemHandler persists one completed unit of work (an answer, a generated
// question). Errors are the handler's own business; the worker only logs.
type ItemHandler func(ctx context.Context, evt Event) error

// StartItemWorker consumes the unit-complete channel on its own goroutine.
// Handler errors and panics are contained here: the client-visible event is
// already queued before the forward happens, so a persistence failure is
// structurally incapable of touching the delivery path.
func (p *Publisher) StartItemWorker(ctx context.Context, handler ItemHandler) {
	p.workerWG.Add(1)
	go func() {
		defer p.workerWG.Done()
		for evt := range p.items {
			p.handleItem(ctx, handler, evt)
		}
	}()
}

func (p *Publisher) handleItem(ctx context.Context, handler ItemHandler, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("STREAM", "Item handler panicked", map[string]interface{}{
				"session_id": p.sessionID,
				"event_type": evt.Type,
				"panic":      r,
			})
		}
	}()
	if err := handler(ctx, evt); err != nil {
		p.logger.Error("STREAM", "Item handler failed", map[string]interface{}{
			"session_id": p.sessionID,
			"event_type": evt.Type,
			"error":      err.Error(),
		})
	}
}

// WaitItemWorker blocks until the persistence worker has drained its channel.
// The channel is closed by the terminal publish.
func (p *Publisher) WaitItemWorker() {
	p.workerWG.Wait()
}
