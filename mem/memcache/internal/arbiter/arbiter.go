// Package arbiter grants a shared resource to one requester at a time.
package arbiter

import "log"

// RoundRobinArbiter grants a resource to one of a fixed, ordered list of
// requesters. The resource is always granted to someone.
type RoundRobinArbiter[T comparable] struct {
	order []T
	owner int
}

// New creates an arbiter. The first requester in the order owns the resource
// initially.
func New[T comparable](order ...T) *RoundRobinArbiter[T] {
	if len(order) == 0 {
		log.Panic("arbiter needs at least one requester")
	}

	return &RoundRobinArbiter[T]{order: order}
}

// Owner returns the requester holding the grant.
func (a *RoundRobinArbiter[T]) Owner() T {
	return a.order[a.owner]
}

// IsGranted tells if r holds the grant.
func (a *RoundRobinArbiter[T]) IsGranted(r T) bool {
	return a.order[a.owner] == r
}

// Order returns the cyclic order.
func (a *RoundRobinArbiter[T]) Order() []T {
	return a.order
}

// Arbitrate keeps the owner while it wants the resource. Otherwise the grant
// moves to the next requester that wants it in cyclic order. When nobody wants
// the resource the owner keeps it. It returns the new owner.
func (a *RoundRobinArbiter[T]) Arbitrate(wants func(T) bool) T {
	if wants(a.order[a.owner]) {
		return a.order[a.owner]
	}

	return a.Next(wants)
}

// Next moves the grant to the next requester after the owner that wants the
// resource, possibly the owner itself. It is used for per-message
// multiplexers where the winner changes at every grant.
func (a *RoundRobinArbiter[T]) Next(wants func(T) bool) T {
	n := len(a.order)

	for i := 1; i <= n; i++ {
		c := (a.owner + i) % n
		if wants(a.order[c]) {
			a.owner = c
			break
		}
	}

	return a.order[a.owner]
}
