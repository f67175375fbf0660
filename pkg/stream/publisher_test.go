package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopTestLogger struct{}

func (nopTestLogger) Debug(string, string, map[string]interface{}) {}
func (nopTestLogger) Info(string, string, map[string]interface{})  {}
func (nopTestLogger) Warn(string, string, map[string]interface{})  {}
func (nopTestLogger) Error(string, string, map[string]interface{}) {}
func (nopTestLogger) Sync() error                                  { return nil }

func newTestPublisher(opts ...Option) *Publisher {
	return NewPublisher("session-1", nopTestLogger{}, opts...)
}

func TestPublisherFIFOOrder(t *testing.T) {
	p := newTestPublisher()

	p.Emit(EventThinking, map[string]interface{}{"n": 1})
	p.Emit(EventObservation, map[string]interface{}{"n": 2})
	p.Emit(EventGenerationStart, map[string]interface{}{"n": 3})
	p.Emit(EventDone, nil)

	ctx := context.Background()
	wantTypes := []string{EventThinking, EventObservation, EventGenerationStart, EventDone}
	for _, want := range wantTypes {
		evt, err := p.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, evt.Type)
		assert.Equal(t, "session-1", evt.SessionID)
	}

	_, err := p.Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestPublisherOnlyDoneCloses(t *testing.T) {
	p := newTestPublisher()

	p.Emit(EventErrorMessage, map[string]interface{}{"message": "transient"})
	p.Emit(EventErrorRetry, map[string]interface{}{"attempt": 1})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		evt, err := p.Next(ctx)
		require.NoError(t, err)
		assert.False(t, evt.Terminal())
	}

	// Error events do not close the stream; a later publish still delivers.
	p.Emit(EventDone, nil)
	evt, err := p.Next(ctx)
	require.NoError(t, err)
	assert.True(t, evt.Terminal())
}

func TestPublisherPublishAfterCloseIsNoop(t *testing.T) {
	p := newTestPublisher()

	p.Emit(EventDone, nil)
	// Must not panic and must not enqueue.
	p.Emit(EventThinking, nil)
	p.Emit(EventDone, nil)

	ctx := context.Background()
	evt, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventDone, evt.Type)

	_, err = p.Next(ctx)
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestPublisherKeepAlive(t *testing.T) {
	p := newTestPublisher(WithKeepAlive(20 * time.Millisecond))

	evt, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventKeepAlive, evt.Type)

	// The stream stays open after a keepalive.
	p.Emit(EventThinking, nil)
	evt, err = p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventThinking, evt.Type)
}

func TestPublisherNextBlocksUntilPublish(t *testing.T) {
	p := newTestPublisher()

	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Emit(EventThinking, nil)
	}()

	evt, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventThinking, evt.Type)
}

func TestPublisherNextContextCancellation(t *testing.T) {
	p := newTestPublisher()
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestItemWorkerReceivesUnitCompletes(t *testing.T) {
	p := newTestPublisher()

	var mu sync.Mutex
	var seen []string
	p.StartItemWorker(context.Background(), func(ctx context.Context, evt Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, evt.Payload["question"].(string))
		return nil
	})

	p.Emit(EventQuestionComplete, map[string]interface{}{"question": "q1"})
	p.Emit(EventThinking, nil) // not a unit-complete, never forwarded
	p.Emit(EventQuestionComplete, map[string]interface{}{"question": "q2"})
	p.Emit(EventDone, nil)
	p.WaitItemWorker()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"q1", "q2"}, seen)
}

func TestItemWorkerFailureDoesNotTouchDelivery(t *testing.T) {
	p := newTestPublisher()

	p.StartItemWorker(context.Background(), func(ctx context.Context, evt Event) error {
		return errors.New("persistence down")
	})

	p.Emit(EventQuestionComplete, map[string]interface{}{"question": "q1"})
	p.Emit(EventDone, nil)

	// Every event is still delivered to the consumer in order.
	ctx := context.Background()
	evt, err := p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventQuestionComplete, evt.Type)

	evt, err = p.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, EventDone, evt.Type)

	p.WaitItemWorker()
}

func TestItemWorkerPanicIsContained(t *testing.T) {
	p := newTestPublisher()

	calls := 0
	var mu sync.Mutex
	p.StartItemWorker(context.Background(), func(ctx context.Context, evt Event) error {
		mu.Lock()
		calls++
		mu.Unlock()
		panic("handler bug")
	})

	p.Emit(EventQuestionComplete, map[string]interface{}{"question": "q1"})
	p.Emit(EventQuestionComplete, map[string]interface{}{"question": "q2"})
	p.Emit(EventDone, nil)
	p.WaitItemWorker()

	// A panic on the first item must not kill the worker before the second.
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)

	evt, err := p.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EventQuestionComplete, evt.Type)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	p := newTestPublisher()

	cancelled := false
	r.Put(p.SessionID(), p, func() { cancelled = true })

	got, ok := r.Get("session-1")
	require.True(t, ok)
	assert.Same(t, p, got)

	assert.True(t, r.Cancel("session-1"))
	assert.True(t, cancelled)

	r.Remove("session-1")
	_, ok = r.Get("session-1")
	assert.False(t, ok)
	assert.False(t, r.Cancel("session-1"))
}

func TestRegistryRemoveAfter(t *testing.T) {
	r := NewRegistry()
	p := newTestPublisher()
	r.Put(p.SessionID(), p, func() {})

	r.RemoveAfter("session-1", 10*time.Millisecond)

	// Still attachable inside the grace window.
	_, ok := r.Get("session-1")
	require.True(t, ok)

	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := r.Get("session-1"); !ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("registry entry still present after the grace window")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
