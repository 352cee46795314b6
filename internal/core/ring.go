package core

// ring is a bounded FIFO that evicts its oldest entry once full.
type ring[T any] struct {
	items []T
	cap   int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{cap: capacity}
}

func (r *ring[T]) Push(v T) {
	if len(r.items) == r.cap {
		copy(r.items, r.items[1:])
		r.items[len(r.items)-1] = v
		return
	}
	r.items = append(r.items, v)
}

func (r *ring[T]) Len() int { return len(r.items) }

// Items returns the entries oldest first. The slice is a copy.
func (r *ring[T]) Items() []T {
	out := make([]T, len(r.items))
	copy(out, r.items)
	return out
}
