package ir

import (
	"encoding/json"
	"fmt"
)

// Action is a domain action: a type tag plus an opaque payload.
// Payload is nil when the action carries none.
type Action struct {
	Type    string
	Payload Value
}

// NewAction creates an Action with an optional payload.
func NewAction(actionType string, payload Value) Action {
	return Action{Type: actionType, Payload: payload}
}

// Value returns the object form {"type", "payload"} of the action.
// The payload key is omitted when Payload is nil.
func (a Action) Value() Object {
	obj := Object{"type": String(a.Type)}
	if a.Payload != nil {
		obj["payload"] = a.Payload
	}
	return obj
}

// MarshalJSON produces {"payload":...,"type":...} with sorted keys.
func (a Action) MarshalJSON() ([]byte, error) {
	return a.Value().MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler for Action.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.Type = raw.Type
	a.Payload = nil
	if len(raw.Payload) > 0 {
		v, err := unmarshalValue(raw.Payload)
		if err != nil {
			return fmt.Errorf("action %q payload: %w", raw.Type, err)
		}
		a.Payload = v
	}
	return nil
}

// HistoryAction is one recorded entry in an action history.
// Skipped entries are excluded from replay (they have been undone).
type HistoryAction struct {
	Action  Action `json:"action"`
	Skipped bool   `json:"skipped"`
}

// Value returns the object form {"action", "skipped"} of the entry.
func (h HistoryAction) Value() Object {
	return Object{
		"action":  h.Action.Value(),
		"skipped": Bool(h.Skipped),
	}
}

// ExportedHistory is the serializable projection of a history.
// The replay snapshot is deliberately absent: whoever hydrates the history
// supplies the baseline.
type ExportedHistory struct {
	Actions  []HistoryAction `json:"actions"`
	Tracking bool            `json:"tracking"`
}

// Value returns the object form {"actions", "tracking"} of the history.
func (h ExportedHistory) Value() Object {
	actions := make(Array, len(h.Actions))
	for i, entry := range h.Actions {
		actions[i] = entry.Value()
	}
	return Object{
		"actions":  actions,
		"tracking": Bool(h.Tracking),
	}
}

// MarshalCanonical produces the canonical JSON stored for a history.
func (h ExportedHistory) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(h.Value())
}

// UnmarshalJSON decodes a stored history. A missing actions list decodes
// as empty and a missing tracking flag decodes as true.
func (h *ExportedHistory) UnmarshalJSON(data []byte) error {
	var raw struct {
		Actions  []HistoryAction `json:"actions"`
		Tracking *bool           `json:"tracking"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	h.Actions = raw.Actions
	if h.Actions == nil {
		h.Actions = []HistoryAction{}
	}
	h.Tracking = raw.Tracking == nil || *raw.Tracking
	return nil
}

// DecodeExportedHistory reads a history from its object form.
// Decoding never fails: anything that is not an object yields the default
// history (no actions, tracking on), a missing or mistyped field takes its
// default, and entries without a string action type are dropped.
func DecodeExportedHistory(v Value) ExportedHistory {
	h := ExportedHistory{Actions: []HistoryAction{}, Tracking: true}

	obj, ok := v.(Object)
	if !ok {
		return h
	}
	if tracking, ok := obj["tracking"].(Bool); ok {
		h.Tracking = bool(tracking)
	}
	entries, ok := obj["actions"].(Array)
	if !ok {
		return h
	}
	for _, e := range entries {
		entry, ok := decodeHistoryAction(e)
		if !ok {
			continue
		}
		h.Actions = append(h.Actions, entry)
	}
	return h
}

func decodeHistoryAction(v Value) (HistoryAction, bool) {
	obj, ok := v.(Object)
	if !ok {
		return HistoryAction{}, false
	}
	actionObj, ok := obj["action"].(Object)
	if !ok {
		return HistoryAction{}, false
	}
	actionType, ok := actionObj["type"].(String)
	if !ok || actionType == "" {
		return HistoryAction{}, false
	}
	skipped, _ := obj["skipped"].(Bool)
	return HistoryAction{
		Action:  Action{Type: string(actionType), Payload: actionObj["payload"]},
		Skipped: bool(skipped),
	}, true
}
