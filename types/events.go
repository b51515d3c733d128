package types

import (
	"encoding/json"
	"fmt"
)

// Kind discriminator values carried on the wire by streamable result objects.
const (
	KindMessage        = "message"
	KindTask           = "task"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// Event is the union of result objects a server may emit on a message
// stream: a full Task snapshot, a plain Message, or one of the two task
// update events.
type Event interface {
	// EventKind returns the wire discriminator of the event.
	EventKind() string
	// TaskReference returns the task id the event refers to, or "" for a
	// plain message with no task association.
	TaskReference() string
}

// EventKind returns the wire discriminator for a Message.
func (m *Message) EventKind() string { return KindMessage }

// TaskReference returns the task id the message refers to, if any.
func (m *Message) TaskReference() string {
	if m.TaskID == nil {
		return ""
	}
	return *m.TaskID
}

// EventKind returns the wire discriminator for a Task.
func (t *Task) EventKind() string { return KindTask }

// TaskReference returns the task's own id.
func (t *Task) TaskReference() string { return t.ID }

// EventKind returns the wire discriminator for a status update.
func (e *TaskStatusUpdateEvent) EventKind() string { return KindStatusUpdate }

// TaskReference returns the id of the task being updated.
func (e *TaskStatusUpdateEvent) TaskReference() string { return e.TaskID }

// EventKind returns the wire discriminator for an artifact update.
func (e *TaskArtifactUpdateEvent) EventKind() string { return KindArtifactUpdate }

// TaskReference returns the id of the task being updated.
func (e *TaskArtifactUpdateEvent) TaskReference() string { return e.TaskID }

// IsFinalEvent reports whether the event terminates a message stream: a
// plain message, or a status update flagged final.
func IsFinalEvent(event Event) bool {
	switch e := event.(type) {
	case *Message:
		return true
	case *TaskStatusUpdateEvent:
		return e.Final
	default:
		return false
	}
}

// eventDecoders dispatches stream result decoding on the kind field.
var eventDecoders = map[string]func() Event{
	KindMessage:        func() Event { return &Message{} },
	KindTask:           func() Event { return &Task{} },
	KindStatusUpdate:   func() Event { return &TaskStatusUpdateEvent{} },
	KindArtifactUpdate: func() Event { return &TaskArtifactUpdateEvent{} },
}

// MarshalEvent encodes an event for the wire, stamping the kind
// discriminator so the payload can be decoded by UnmarshalEvent.
func MarshalEvent(event Event) ([]byte, error) {
	switch e := event.(type) {
	case *Message:
		stamped := *e
		stamped.Kind = KindMessage
		return json.Marshal(&stamped)
	case *Task:
		stamped := *e
		stamped.Kind = KindTask
		return json.Marshal(&stamped)
	case *TaskStatusUpdateEvent:
		stamped := *e
		stamped.Kind = KindStatusUpdate
		return json.Marshal(&stamped)
	case *TaskArtifactUpdateEvent:
		stamped := *e
		stamped.Kind = KindArtifactUpdate
		return json.Marshal(&stamped)
	default:
		return nil, fmt.Errorf("unknown event type %T", event)
	}
}

// UnmarshalEvent decodes a stream result object into the concrete event
// type named by its kind discriminator.
func UnmarshalEvent(data []byte) (Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to probe event kind: %w", err)
	}

	newEvent, ok := eventDecoders[probe.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown event kind: %q", probe.Kind)
	}

	event := newEvent()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", probe.Kind, err)
	}
	return event, nil
}
