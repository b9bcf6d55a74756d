// Package store defines the realtime key-value store every game role talks
// through, plus the backends that implement it. Paths are slash-separated
// ("game/state", "players/p1", "responses/3/p1"); each path holds one JSON
// record, and every successful write emits a change notification to
// subscribers of any enclosing prefix.
package store

import (
	"context"
	"encoding/json"
	"strings"
)

// Event notifies subscribers that the record at Path changed. Subscribers
// re-read whatever they care about; the event itself carries no value.
type Event struct {
	Path string
}

// Write is one entry of a MultiWrite batch. Exactly one of Value, Fields,
// or Delete applies: Value replaces the record, Fields shallow-merges into
// it, Delete removes the path and everything under it.
type Write struct {
	Path   string
	Value  any
	Fields map[string]any
	Delete bool
}

type Store interface {
	// Get decodes the record at path into v. The bool reports existence.
	Get(ctx context.Context, path string, v any) (bool, error)
	// Set replaces the record at path.
	Set(ctx context.Context, path string, v any) error
	// Merge shallow-merges fields into the JSON object at path, creating
	// the record if absent.
	Merge(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the record at path and every record beneath it.
	Delete(ctx context.Context, path string) error
	// SetNX creates the record only if the path is vacant. The bool
	// reports whether this call created it.
	SetNX(ctx context.Context, path string, v any) (bool, error)
	// IncrBy atomically adds delta to the numeric field of the object at
	// path and returns the new value. A missing record or field counts
	// as zero.
	IncrBy(ctx context.Context, path, field string, delta int) (int, error)
	// List returns the direct children of prefix, keyed by child name.
	List(ctx context.Context, prefix string) (map[string]json.RawMessage, error)
	// Subscribe streams change events for prefix and everything under it.
	// An empty prefix matches all paths. The returned func cancels the
	// subscription; the channel is closed afterwards.
	Subscribe(ctx context.Context, prefix string) (<-chan Event, func())
	// MultiWrite applies the batch as a single administrative action.
	// Backends apply it transactionally where they can; otherwise writes
	// land in order and the first failure is returned.
	MultiWrite(ctx context.Context, writes []Write) error

	Ping(ctx context.Context) error
	Close() error
}

// under reports whether path is prefix itself or lies beneath it.
func under(path, prefix string) bool {
	if prefix == "" || path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// childName returns the direct-child name of path relative to prefix, or
// false if path is not exactly one level below it.
func childName(path, prefix string) (string, bool) {
	if !strings.HasPrefix(path, prefix+"/") {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix+"/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// mergeObject applies fields over the JSON object in raw. A nil or empty
// raw starts from an empty object.
func mergeObject(raw json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	obj := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		obj[k] = v
	}
	return json.Marshal(obj)
}

// incrObject adds delta to the numeric field of the JSON object in raw and
// returns the updated object plus the new value.
func incrObject(raw json.RawMessage, field string, delta int) (json.RawMessage, int, error) {
	obj := make(map[string]any)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, 0, err
		}
	}
	current := 0
	if f, ok := obj[field].(float64); ok {
		current = int(f)
	}
	next := current + delta
	obj[field] = next
	out, err := json.Marshal(obj)
	return out, next, err
}
