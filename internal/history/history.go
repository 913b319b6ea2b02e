// Package history implements a linear undo/redo stack.
package history

// History is a list of snapshots with a current position. Entries after the
// position form the redo tail.
type History[T any] struct {
	entries []T
	pos     int
	equal   func(a, b T) bool
}

// New returns a history holding initial. Two snapshots that equal reports as
// the same are never stored next to each other.
func New[T any](initial T, equal func(a, b T) bool) *History[T] {
	return &History[T]{entries: []T{initial}, equal: equal}
}

// Current returns the snapshot at the current position.
func (h *History[T]) Current() T {
	return h.entries[h.pos]
}

// Len returns the number of stored snapshots.
func (h *History[T]) Len() int { return len(h.entries) }

// Push records v as the newest snapshot, dropping the redo tail. It does
// nothing when v equals the current snapshot.
func (h *History[T]) Push(v T) {
	if h.equal(h.Current(), v) {
		return
	}
	h.entries = append(h.entries[:h.pos+1], v)
	h.pos++
}

// Undo records current if it has unsaved changes and steps back one
// snapshot. At the oldest snapshot it returns that snapshot.
func (h *History[T]) Undo(current T) T {
	h.Push(current)
	if h.pos > 0 {
		h.pos--
	}
	return h.Current()
}

// Redo steps forward one snapshot. Unsaved changes in current end the redo
// tail first, so there is nothing to redo after them.
func (h *History[T]) Redo(current T) T {
	h.Push(current)
	if h.pos < len(h.entries)-1 {
		h.pos++
	}
	return h.Current()
}

// CanRedo reports whether a redo tail exists.
func (h *History[T]) CanRedo() bool {
	return h.pos < len(h.entries)-1
}
