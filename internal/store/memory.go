package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store. It backs tests and the single-binary demo
// mode; every game role in the same process observes the same data.
type Memory struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
	notify  *notifier
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]json.RawMessage),
		notify:  newNotifier(),
	}
}

func (m *Memory) Get(_ context.Context, path string, v any) (bool, error) {
	m.mu.RLock()
	raw, ok := m.records[path]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decoding %q: %w", path, err)
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	m.mu.Lock()
	m.records[path] = raw
	m.mu.Unlock()
	m.notify.notify(path)
	return nil
}

func (m *Memory) Merge(_ context.Context, path string, fields map[string]any) error {
	m.mu.Lock()
	merged, err := mergeObject(m.records[path], fields)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("merging %q: %w", path, err)
	}
	m.records[path] = merged
	m.mu.Unlock()
	m.notify.notify(path)
	return nil
}

func (m *Memory) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	var removed []string
	for p := range m.records {
		if under(p, path) {
			removed = append(removed, p)
		}
	}
	for _, p := range removed {
		delete(m.records, p)
	}
	m.mu.Unlock()
	if len(removed) > 0 {
		m.notify.notify(path)
	}
	return nil
}

func (m *Memory) SetNX(_ context.Context, path string, v any) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encoding %q: %w", path, err)
	}
	m.mu.Lock()
	if _, exists := m.records[path]; exists {
		m.mu.Unlock()
		return false, nil
	}
	m.records[path] = raw
	m.mu.Unlock()
	m.notify.notify(path)
	return true, nil
}

func (m *Memory) IncrBy(_ context.Context, path, field string, delta int) (int, error) {
	m.mu.Lock()
	updated, next, err := incrObject(m.records[path], field, delta)
	if err != nil {
		m.mu.Unlock()
		return 0, fmt.Errorf("incrementing %q.%s: %w", path, field, err)
	}
	m.records[path] = updated
	m.mu.Unlock()
	m.notify.notify(path)
	return next, nil
}

func (m *Memory) List(_ context.Context, prefix string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	m.mu.RLock()
	for p, raw := range m.records {
		if name, ok := childName(p, prefix); ok {
			out[name] = raw
		}
	}
	m.mu.RUnlock()
	return out, nil
}

func (m *Memory) Subscribe(ctx context.Context, prefix string) (<-chan Event, func()) {
	return m.notify.subscribe(ctx, prefix)
}

func (m *Memory) MultiWrite(_ context.Context, writes []Write) error {
	m.mu.Lock()
	changed := make([]string, 0, len(writes))
	for _, w := range writes {
		switch {
		case w.Delete:
			for p := range m.records {
				if under(p, w.Path) {
					delete(m.records, p)
				}
			}
		case w.Fields != nil:
			merged, err := mergeObject(m.records[w.Path], w.Fields)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("merging %q: %w", w.Path, err)
			}
			m.records[w.Path] = merged
		default:
			raw, err := json.Marshal(w.Value)
			if err != nil {
				m.mu.Unlock()
				return fmt.Errorf("encoding %q: %w", w.Path, err)
			}
			m.records[w.Path] = raw
		}
		changed = append(changed, w.Path)
	}
	m.mu.Unlock()
	m.notify.notify(changed...)
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// Dump returns every stored path in order, for test assertions.
func (m *Memory) Dump() []string {
	m.mu.RLock()
	paths := make([]string, 0, len(m.records))
	for p := range m.records {
		paths = append(paths, p)
	}
	m.mu.RUnlock()
	sort.Strings(paths)
	return paths
}

var _ Store = (*Memory)(nil)
