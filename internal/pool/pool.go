// Package pool wraps sync.Pool with a typed API.
package pool

import "sync"

// Pool is a typed sync.Pool. The DNS name decoder keeps its scratch buffers
// in one.
type Pool[T any] struct {
	internal sync.Pool
}

// New creates a Pool whose empty Get calls newFn.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{
		internal: sync.Pool{
			New: func() any {
				return newFn()
			},
		},
	}
}

// Get retrieves an item, allocating one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.internal.Get().(T) //nolint:forcetypeassert // only T is ever Put
}

// Put returns an item to the pool.
func (p *Pool[T]) Put(item T) {
	p.internal.Put(item)
}
