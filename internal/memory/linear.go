package memory

// Linear is a bump allocator over a reserved buffer. It is not safe for
// concurrent use; each worker owns its own instance and resets it per task.
type Linear[T any] struct {
	buf    []T
	cursor int
}

// NewLinear reserves capacity elements up front.
func NewLinear[T any](capacity int) *Linear[T] {
	return &Linear[T]{buf: make([]T, capacity)}
}

// Allocate bumps the cursor by n and returns the n elements it skipped over.
// It returns nil when the request does not fit; the buffer is exhausted for
// the current task and retrying will not help.
func (l *Linear[T]) Allocate(n int) []T {
	if n < 0 || l.cursor+n > len(l.buf) {
		return nil
	}
	s := l.buf[l.cursor : l.cursor+n : l.cursor+n]
	l.cursor += n
	return s
}

// Reset rewinds the cursor. Previously returned slices alias the next
// allocations, nothing is cleared.
func (l *Linear[T]) Reset() {
	l.cursor = 0
}

// Used returns the elements handed out since the last Reset, in order.
func (l *Linear[T]) Used() []T {
	return l.buf[:l.cursor]
}

// Len returns the cursor position.
func (l *Linear[T]) Len() int { return l.cursor }

// Cap returns the reserved capacity.
func (l *Linear[T]) Cap() int { return len(l.buf) }
