package stream

import (
	"encoding/json"
	"time"
)

// Event type catalog. The stream closes on EventDone and on nothing else.
const (
	EventThinking    = "thinking"
	EventAction      = "action"
	EventObservation = "observation"

	EventGenerationStart    = "generation:start"
	EventGenerationChunk    = "generation:chunk"
	EventGenerationComplete = "generation:complete"
	EventQuestionComplete   = "generation:question_complete"

	EventSourceRetrieving = "source:retrieving"
	EventSourceFound      = "source:found"

	EventValidationStart  = "validation:start"
	EventValidationResult = "validation:result"

	EventErrorMessage = "error:message"
	EventErrorRetry   = "error:retry"

	EventDone = "done"

	// EventKeepAlive never enters the queue; Next synthesizes it when the
	// consumer has waited idle for the keepalive interval. The SSE writer
	// renders it as a comment line, not a data frame.
	EventKeepAlive = "keepalive"
)

// Event is one frame of a session's progress stream. Payload fields are
// flattened next to the envelope fields on the wire.
type Event struct {
	Type      string
	Timestamp time.Time
	SessionID string
	Payload   map[string]interface{}
}

// Terminal reports whether this event closes the stream.
func (e Event) Terminal() bool {
	return e.Type == EventDone
}

// unitComplete reports whether this event finishes one unit of work and
// should be forwarded to the persistence worker channel.
func (e Event) unitComplete() bool {
	return e.Type == EventQuestionComplete || e.Type == EventGenerationComplete
}

// MarshalJSON flattens the payload into the envelope:
// {"event_type": ..., "timestamp": ..., "session_id": ..., <payload fields>}.
// Payload keys never override the envelope keys.
func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Payload)+3)
	for k, v := range e.Payload {
		out[k] = v
	}
	out["event_type"] = e.Type
	out["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
	out["session_id"] = e.SessionID
	return json.Marshal(out)
}
