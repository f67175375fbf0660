package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSSEFrameFormat(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	evt := Event{
		Type:      EventThinking,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SessionID: "session-1",
		Payload:   map[string]interface{}{"stage": "ANALYZING", "message": "Analyzing the question"},
	}
	require.NoError(t, WriteSSE(w, evt))

	frame := buf.String()
	require.True(t, strings.HasPrefix(frame, "event: thinking\ndata: "), "frame = %q", frame)
	require.True(t, strings.HasSuffix(frame, "\n\n"), "frame = %q", frame)

	dataLine := strings.TrimSuffix(strings.TrimPrefix(frame, "event: thinking\ndata: "), "\n\n")
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &decoded))

	// Envelope fields and payload fields share one flat object.
	assert.Equal(t, "thinking", decoded["event_type"])
	assert.Equal(t, "session-1", decoded["session_id"])
	assert.Equal(t, "ANALYZING", decoded["stage"])
	assert.Equal(t, "Analyzing the question", decoded["message"])
	assert.Contains(t, decoded, "timestamp")
}

func TestWriteSSEPayloadCannotOverrideEnvelope(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	evt := Event{
		Type:      EventObservation,
		Timestamp: time.Now().UTC(),
		SessionID: "session-1",
		Payload:   map[string]interface{}{"event_type": "spoofed", "session_id": "other"},
	}
	require.NoError(t, WriteSSE(w, evt))

	dataLine := strings.TrimSuffix(strings.SplitN(buf.String(), "data: ", 2)[1], "\n\n")
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(dataLine), &decoded))

	assert.Equal(t, "observation", decoded["event_type"])
	assert.Equal(t, "session-1", decoded["session_id"])
}

func TestWriteSSEKeepAliveComment(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, WriteSSE(w, Event{Type: EventKeepAlive}))

	assert.Equal(t, ": keepalive\n\n", buf.String())
}

func TestServeSSEDrainsUntilDone(t *testing.T) {
	p := newTestPublisher()
	p.Emit(EventThinking, map[string]interface{}{"message": "working"})
	p.Emit(EventGenerationComplete, map[string]interface{}{"answer": "42"})
	p.Emit(EventDone, map[string]interface{}{"status": "completed"})

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	require.NoError(t, ServeSSE(context.Background(), w, p))

	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "event: "))
	assert.Contains(t, out, "event: done\n")
	// done is the final frame written.
	assert.True(t, strings.Index(out, "event: done") > strings.Index(out, "event: generation:complete"))
}

func TestServeSSEEmitsKeepAlivesWhileIdle(t *testing.T) {
	p := newTestPublisher(WithKeepAlive(10 * time.Millisecond))

	go func() {
		time.Sleep(35 * time.Millisecond)
		p.Emit(EventDone, nil)
	}()

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, ServeSSE(context.Background(), w, p))

	out := buf.String()
	assert.Contains(t, out, ": keepalive\n\n")
	assert.Contains(t, out, "event: done\n")
}

func TestServeSSEReturnsContextError(t *testing.T) {
	p := newTestPublisher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := ServeSSE(ctx, bufio.NewWriter(&buf), p)
	assert.ErrorIs(t, err, context.Canceled)
}
