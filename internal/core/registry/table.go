package registry

// Table is a separately chained hash table. Each bucket holds a singly linked
// list of entries. The bucket array doubles when the load factor is exceeded.
//
// Table is not safe for concurrent use.
type Table[K comparable, V any] struct {
	buckets    []*entry[K, V]
	size       int
	loadFactor float64
	hash       Hasher[K]
	rehashes   int
}

type entry[K comparable, V any] struct {
	key   K
	value V
	next  *entry[K, V]
}

// New creates an empty table using hash for bucket selection.
func New[K comparable, V any](hash Hasher[K], opts ...Option) *Table[K, V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Table[K, V]{
		buckets:    make([]*entry[K, V], o.capacity),
		loadFactor: o.loadFactor,
		hash:       hash,
	}
}

func (t *Table[K, V]) index(k K, capacity int) int {
	return int(t.hash(k) % uint64(capacity))
}

// Insert stores v under k. An existing key is overwritten in place. A new key
// is linked at the head of its chain, after which the table grows if the load
// factor is exceeded.
func (t *Table[K, V]) Insert(k K, v V) {
	i := t.index(k, len(t.buckets))
	for e := t.buckets[i]; e != nil; e = e.next {
		if e.key == k {
			e.value = v
			return
		}
	}

	t.buckets[i] = &entry[K, V]{key: k, value: v, next: t.buckets[i]}
	t.size++

	if t.LoadFactor() > t.loadFactor {
		t.rehash(len(t.buckets) * 2)
	}
}

// rehash moves every entry into a bucket array of the given capacity. Entries
// are relinked, not copied.
func (t *Table[K, V]) rehash(capacity int) {
	next := make([]*entry[K, V], capacity)
	for _, head := range t.buckets {
		for e := head; e != nil; {
			after := e.next
			i := t.index(e.key, capacity)
			e.next = next[i]
			next[i] = e
			e = after
		}
	}
	t.buckets = next
	t.rehashes++
}

// Find returns the value stored under k.
func (t *Table[K, V]) Find(k K) (V, bool) {
	for e := t.buckets[t.index(k, len(t.buckets))]; e != nil; e = e.next {
		if e.key == k {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Contains reports whether k is present.
func (t *Table[K, V]) Contains(k K) bool {
	_, ok := t.Find(k)
	return ok
}

// Remove unlinks k. Returns false when k was absent.
func (t *Table[K, V]) Remove(k K) bool {
	i := t.index(k, len(t.buckets))
	for prev, e := (*entry[K, V])(nil), t.buckets[i]; e != nil; prev, e = e, e.next {
		if e.key != k {
			continue
		}
		if prev == nil {
			t.buckets[i] = e.next
		} else {
			prev.next = e.next
		}
		t.size--
		return true
	}
	return false
}

// Range calls fn for every entry in bucket order until fn returns false.
func (t *Table[K, V]) Range(fn func(K, V) bool) {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// Keys returns every key in bucket order.
func (t *Table[K, V]) Keys() []K {
	keys := make([]K, 0, t.size)
	t.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Values returns every value in bucket order.
func (t *Table[K, V]) Values() []V {
	values := make([]V, 0, t.size)
	t.Range(func(_ K, v V) bool {
		values = append(values, v)
		return true
	})
	return values
}

// Clear drops every entry and keeps the current bucket count.
func (t *Table[K, V]) Clear() {
	clear(t.buckets)
	t.size = 0
}

func (t *Table[K, V]) Len() int { return t.size }

func (t *Table[K, V]) IsEmpty() bool { return t.size == 0 }

func (t *Table[K, V]) Capacity() int { return len(t.buckets) }

// LoadFactor is the current size/capacity ratio.
func (t *Table[K, V]) LoadFactor() float64 {
	return float64(t.size) / float64(len(t.buckets))
}

// Rehashes counts how many times the bucket array has grown.
func (t *Table[K, V]) Rehashes() int { return t.rehashes }
