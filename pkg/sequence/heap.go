package sequence

import "container/heap"

// PriorityItem is one slot of the binary heap. Lower Priority values are more
// urgent.
type PriorityItem[T comparable] struct {
	Value    T
	Priority float64
}

// minHeap is the flat-array heap adapted to container/heap. Index 0 is the
// root; the children of i live at 2i+1 and 2i+2.
type minHeap[T comparable] struct {
	items []PriorityItem[T]
}

func (h *minHeap[T]) Len() int {
	return len(h.items)
}

func (h *minHeap[T]) Less(i, j int) bool {
	return h.items[i].Priority < h.items[j].Priority
}

func (h *minHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

func (h *minHeap[T]) Push(x any) {
	h.items = append(h.items, x.(PriorityItem[T]))
}

func (h *minHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	var zero PriorityItem[T]
	old[n-1] = zero // avoid memory leak
	h.items = old[0 : n-1]
	return item
}

// PriorityQueue is a binary min-heap keyed by a float priority. Equal
// priorities come out in no particular order.
type PriorityQueue[T comparable] struct {
	h minHeap[T]
}

func NewPriorityQueue[T comparable]() *PriorityQueue[T] {
	return NewPriorityQueueWithCapacity[T](16)
}

func NewPriorityQueueWithCapacity[T comparable](capacity int) *PriorityQueue[T] {
	if capacity < 0 {
		capacity = 0
	}
	pq := &PriorityQueue[T]{h: minHeap[T]{items: make([]PriorityItem[T], 0, capacity)}}
	heap.Init(&pq.h)
	return pq
}

// Enqueue appends value and sifts it up. O(log n).
func (pq *PriorityQueue[T]) Enqueue(value T, priority float64) {
	heap.Push(&pq.h, PriorityItem[T]{Value: value, Priority: priority})
}

// Dequeue removes and returns the most urgent value. O(log n).
func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	item, ok := pq.DequeueItem()
	return item.Value, ok
}

// DequeueItem is Dequeue that also reports the priority the value held.
func (pq *PriorityQueue[T]) DequeueItem() (PriorityItem[T], bool) {
	if pq.h.Len() == 0 {
		return PriorityItem[T]{}, false
	}
	return heap.Pop(&pq.h).(PriorityItem[T]), true
}

func (pq *PriorityQueue[T]) Peek() (T, bool) {
	if pq.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return pq.h.items[0].Value, true
}

func (pq *PriorityQueue[T]) PeekPriority() (float64, bool) {
	if pq.h.Len() == 0 {
		return 0, false
	}
	return pq.h.items[0].Priority, true
}

// UpdatePriority finds value by linear scan and moves it up or down to match
// its new priority. Only the first match is updated. O(n).
func (pq *PriorityQueue[T]) UpdatePriority(value T, priority float64) bool {
	i := pq.indexOf(value)
	if i < 0 {
		return false
	}
	pq.h.items[i].Priority = priority
	heap.Fix(&pq.h, i)
	return true
}

// Contains reports whether value is queued. O(n).
func (pq *PriorityQueue[T]) Contains(value T) bool {
	return pq.indexOf(value) >= 0
}

func (pq *PriorityQueue[T]) indexOf(value T) int {
	for i := range pq.h.items {
		if pq.h.items[i].Value == value {
			return i
		}
	}
	return -1
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.h.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.h.Len() == 0
}

// Clear drops every element but keeps the backing array.
func (pq *PriorityQueue[T]) Clear() {
	clear(pq.h.items)
	pq.h.items = pq.h.items[:0]
}

// Items returns a copy of the heap array in heap order.
func (pq *PriorityQueue[T]) Items() []PriorityItem[T] {
	out := make([]PriorityItem[T], len(pq.h.items))
	copy(out, pq.h.items)
	return out
}
