// Package audit describes the change log kept for every registry record.
package audit

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"repopa/internal/core/id"
)

// Action is the kind of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one row of the change log.
type Entry struct {
	ID         id.ID           `json:"id"`
	EntityType string          `json:"entityType"`
	EntityID   id.ID           `json:"entityId"`
	Action     Action          `json:"action"`
	UserID     string          `json:"userId,omitempty"`
	UserEmail  string          `json:"userEmail,omitempty"`
	Changes    json.RawMessage `json:"changes,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Logger persists change log entries. Implementations write on the
// caller's transaction.
type Logger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) error
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Change is the before/after pair of one field.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// Diff returns the fields whose values differ between two snapshots.
// Keys present on one side only are reported with a nil counterpart.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)
	for k, nv := range newState {
		ov, ok := oldState[k]
		if !ok || !reflect.DeepEqual(ov, nv) {
			changes[k] = Change{Old: ov, New: nv}
		}
	}
	for k, ov := range oldState {
		if _, ok := newState[k]; !ok {
			changes[k] = Change{Old: ov}
		}
	}
	return changes
}

// Snapshot flattens v into its JSON field map, the form stored in the
// change log.
func Snapshot(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// Nop discards everything.
type Nop struct{}

func (Nop) LogChange(context.Context, string, id.ID, Action, map[string]any) error { return nil }

func (Nop) History(context.Context, string, id.ID, int) ([]Entry, error) { return nil, nil }
