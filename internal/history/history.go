package history

import (
	"context"
	"slices"
	"sync"
)

// History is a bounded most-recently-used list with set semantics: pushing
// an item already present moves it to the head instead of duplicating it.
// Readers run concurrently; Push and Clear exclude everyone else.
type History[T comparable] struct {
	mu    sync.RWMutex
	limit int
	items []T // most recent first
}

// New returns an empty History holding at most limit items. A limit below 1
// is raised to 1.
func New[T comparable](limit int) *History[T] {
	if limit < 1 {
		limit = 1
	}
	return &History[T]{limit: limit, items: make([]T, 0, limit)}
}

// Push records item as the most recent entry. If the list was full, the least
// recent entry is evicted and returned with ok set.
func (h *History[T]) Push(item T) (evicted T, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if idx := slices.Index(h.items, item); idx >= 0 {
		h.items = slices.Delete(h.items, idx, idx+1)
	}
	if len(h.items) >= h.limit {
		last := len(h.items) - 1
		evicted, ok = h.items[last], true
		h.items = h.items[:last]
	}
	h.items = slices.Insert(h.items, 0, item)
	return evicted, ok
}

// Remove deletes item if present and reports whether it was.
func (h *History[T]) Remove(item T) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := slices.Index(h.items, item)
	if idx < 0 {
		return false
	}
	h.items = slices.Delete(h.items, idx, idx+1)
	return true
}

// Clear empties the list.
func (h *History[T]) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.items)
	h.items = h.items[:0]
}

// Len returns the number of entries.
func (h *History[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

// IsEmpty reports whether the list has no entries.
func (h *History[T]) IsEmpty() bool {
	return h.Len() == 0
}

// Limit returns the capacity.
func (h *History[T]) Limit() int {
	return h.limit
}

// Contains reports whether item is present.
func (h *History[T]) Contains(item T) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Contains(h.items, item)
}

// Snapshot returns a copy of the entries, most recent first.
func (h *History[T]) Snapshot() []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.items)
}

// Record pushes item. It lets an in-memory History stand in wherever a
// persistent Store is accepted.
func (h *History[T]) Record(_ context.Context, item T) error {
	h.Push(item)
	return nil
}
