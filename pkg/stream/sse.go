package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// WriteSSE renders one event as a server-sent-events frame:
//
//	event: <event_type>
//	data: <JSON envelope with flattened payload>
//	<blank line>
//
// Keepalive markers become comment lines, which clients ignore without
// resetting their event parsers.
func WriteSSE(w *bufio.Writer, evt Event) error {
	if evt.Type == EventKeepAlive {
		if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
			return err
		}
		return w.Flush()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// ServeSSE drains the publisher into an SSE writer until the terminal event
// has been written, the context is cancelled, or the client goes away
// (surfacing as a write error). Cancellation is returned, not swallowed.
func ServeSSE(ctx context.Context, w *bufio.Writer, p *Publisher) error {
	for {
		evt, err := p.Next(ctx)
		if err != nil {
			if errors.Is(err, ErrStreamClosed) {
				return nil
			}
			return err
		}
		if err := WriteSSE(w, evt); err != nil {
			return err
		}
		if evt.Terminal() {
			return nil
		}
	}
}
