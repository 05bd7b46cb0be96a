// Package generic holds small typed wrappers over standard library
// containers.
package generic

import "sync"

// Pool is a typed sync.Pool. Values are reset as they are returned, so Get
// always hands out a value in its initial state.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// NewPool creates a pool that allocates with generate. reset may be nil.
func NewPool[T any](generate func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
		reset: reset,
	}
}

// NewWarmPool is NewPool with warm values allocated up front.
func NewWarmPool[T any](generate func() T, reset func(T), warm int) *Pool[T] {
	p := NewPool(generate, reset)
	for i := 0; i < warm; i++ {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		p.reset(value)
	}
	p.pool.Put(value)
}
