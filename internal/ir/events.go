package ir

import (
	"encoding/json"
	"fmt"
)

// EventKind names a lifecycle event.
type EventKind string

const (
	KindProfileCreated EventKind = "ProfileCreated"
	KindProfileDeleted EventKind = "ProfileDeleted"
)

// Event is an immutable record of a successful lifecycle transition.
// Only ProfileCreated and ProfileDeleted implement it.
type Event interface {
	Kind() EventKind

	// Payload returns the canonical field map for serialization.
	Payload() map[string]any

	eventMarker()
}

// ProfileCreated is emitted once per successful create.
type ProfileCreated struct {
	Profile   Address   `json:"profile"`
	Bump      uint8     `json:"bump"`
	Namespace Namespace `json:"namespace"`
	User      Address   `json:"user"`
	Timestamp int64     `json:"timestamp"`
}

func (ProfileCreated) Kind() EventKind { return KindProfileCreated }
func (ProfileCreated) eventMarker()    {}

// Payload implements Event.
func (e ProfileCreated) Payload() map[string]any {
	return map[string]any{
		"profile":   e.Profile.String(),
		"bump":      int64(e.Bump),
		"namespace": e.Namespace.String(),
		"user":      e.User.String(),
		"timestamp": e.Timestamp,
	}
}

// ProfileDeleted is emitted once per successful delete, before the
// record's storage is reclaimed.
type ProfileDeleted struct {
	Profile   Address   `json:"profile"`
	Namespace Namespace `json:"namespace"`
	User      Address   `json:"user"`
	Timestamp int64     `json:"timestamp"`
}

func (ProfileDeleted) Kind() EventKind { return KindProfileDeleted }
func (ProfileDeleted) eventMarker()    {}

// Payload implements Event.
func (e ProfileDeleted) Payload() map[string]any {
	return map[string]any{
		"profile":   e.Profile.String(),
		"namespace": e.Namespace.String(),
		"user":      e.User.String(),
		"timestamp": e.Timestamp,
	}
}

// MarshalEvent serializes an event payload as canonical JSON.
func MarshalEvent(ev Event) ([]byte, error) {
	data, err := MarshalCanonical(ev.Payload())
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Kind(), err)
	}
	return data, nil
}

// UnmarshalEvent parses a payload produced by MarshalEvent.
func UnmarshalEvent(kind EventKind, data []byte) (Event, error) {
	switch kind {
	case KindProfileCreated:
		var ev ProfileCreated
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		return ev, nil
	case KindProfileDeleted:
		var ev ProfileDeleted
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", kind, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", kind)
	}
}
