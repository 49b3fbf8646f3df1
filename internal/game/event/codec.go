package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// MarshalJSON renders e as a single object whose first keys are "tick" and
// "kind", followed by the payload's fields in declaration order.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event: nil payload")
	}
	body, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("event: encoding %s: %w", e.Payload.Kind(), err)
	}
	var buf bytes.Buffer
	buf.WriteString(`{"tick":`)
	buf.WriteString(strconv.FormatUint(uint64(e.Tick), 10))
	buf.WriteString(`,"kind":`)
	kind, _ := json.Marshal(string(e.Payload.Kind()))
	buf.Write(kind)
	// body is a JSON object; splice its members after kind.
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a record produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var head struct {
		Tick uint32 `json:"tick"`
		Kind Kind   `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("event: decoding header: %w", err)
	}
	p, ok := newPayload(head.Kind)
	if !ok {
		return fmt.Errorf("event: unknown kind %q", head.Kind)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("event: decoding %s: %w", head.Kind, err)
	}
	e.Tick = head.Tick
	e.Payload = reflect.ValueOf(p).Elem().Interface().(Payload)
	return nil
}

// Line returns e encoded as one JSON line without the trailing newline.
func (e Event) Line() string {
	b, err := e.MarshalJSON()
	if err != nil {
		// Every payload type in this package encodes; a failure here is a
		// programming error.
		panic(err)
	}
	return string(b)
}

// Lines encodes events as JSON lines.
func Lines(events []Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Line()
	}
	return out
}

// Parse decodes one JSON line into an Event.
func Parse(line string) (Event, error) {
	var e Event
	if err := e.UnmarshalJSON([]byte(line)); err != nil {
		return Event{}, err
	}
	return e, nil
}
