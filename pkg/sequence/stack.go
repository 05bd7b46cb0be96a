package sequence

// Stack is a LIFO with an optional capacity ceiling. Pushing onto a full stack
// is rejected; nothing is evicted.
type Stack[T any] struct {
	items []T
	max   int
}

// NewStack creates a stack holding at most maxCapacity elements. A value of
// zero or less means unbounded.
func NewStack[T any](maxCapacity int) *Stack[T] {
	s := &Stack[T]{max: maxCapacity}
	if maxCapacity > 0 {
		s.items = make([]T, 0, maxCapacity)
	}
	return s
}

// Push adds value on top. Returns false when the stack is full.
func (s *Stack[T]) Push(value T) bool {
	if s.IsFull() {
		return false
	}
	s.items = append(s.items, value)
	return true
}

func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	top := s.items[n-1]
	s.items[n-1] = zero
	s.items = s.items[:n-1]
	return top, true
}

func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int { return len(s.items) }

func (s *Stack[T]) IsEmpty() bool { return len(s.items) == 0 }

func (s *Stack[T]) IsFull() bool { return s.max > 0 && len(s.items) >= s.max }

func (s *Stack[T]) MaxCapacity() int { return s.max }

func (s *Stack[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}

// SetMaxCapacity changes the ceiling. When the stack holds more than the new
// ceiling the oldest entries are kept and the newest are dropped.
func (s *Stack[T]) SetMaxCapacity(maxCapacity int) {
	s.max = maxCapacity
	if maxCapacity > 0 && len(s.items) > maxCapacity {
		clear(s.items[maxCapacity:])
		s.items = s.items[:maxCapacity]
	}
}

// Items returns a copy ordered bottom to top.
func (s *Stack[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
