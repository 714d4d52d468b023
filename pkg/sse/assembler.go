package sse

import "strings"

// EventAssembler folds text/event-stream lines into event payloads.
// Events are delimited by blank lines; within an event, "data:" lines carry
// the payload and are joined with newlines. Comment lines (leading ':') and
// unknown fields are ignored so new upstream fields never break the stream.
type EventAssembler struct {
	payload strings.Builder
}

// Line consumes one line and returns a completed event payload when the line
// was a dispatching blank line. Multiple "data:" lines accumulate until then.
func (a *EventAssembler) Line(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return a.dispatch()
	}
	if strings.HasPrefix(line, "data:") {
		data := strings.TrimPrefix(line, "data:")
		// The SSE spec allows a single space after the colon.
		data = strings.TrimPrefix(data, " ")
		a.payload.WriteString(data)
		a.payload.WriteString("\n")
		return "", false
	}
	// Comments and fields like "event:" or "id:" carry nothing we consume.
	return "", false
}

// Flush emits any event still buffered at end-of-stream. The upstream does
// not always terminate the final event with a blank line.
func (a *EventAssembler) Flush() (string, bool) {
	return a.dispatch()
}

func (a *EventAssembler) dispatch() (string, bool) {
	if a.payload.Len() == 0 {
		return "", false
	}
	// Drop the one trailing newline the accumulation step added.
	data := strings.TrimSuffix(a.payload.String(), "\n")
	a.payload.Reset()
	return data, true
}
