package store

import (
	"context"
	"sync"
)

// notifier fans change events out to prefix subscribers. Slow subscribers
// drop events rather than block writers; a dropped event is harmless
// because consumers re-read on every notification anyway.
type notifier struct {
	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	prefix string
	ch     chan Event
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[*subscriber]struct{})}
}

func (n *notifier) subscribe(ctx context.Context, prefix string) (<-chan Event, func()) {
	sub := &subscriber{prefix: prefix, ch: make(chan Event, 16)}

	n.mu.Lock()
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, sub)
			// Close under the lock so a concurrent notify cannot send on
			// the closed channel.
			close(sub.ch)
			n.mu.Unlock()
		})
	}

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return sub.ch, cancel
}

func (n *notifier) notify(paths ...string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for sub := range n.subs {
		for _, path := range paths {
			if !under(path, sub.prefix) {
				continue
			}
			select {
			case sub.ch <- Event{Path: path}:
			default:
				// Drop if subscriber is slow.
			}
		}
	}
}
