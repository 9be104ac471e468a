// Package domain contains core concepts of the bulletin board system.
// This file defines the slot pools backing node and observer capacity.
// No runtime, network, or UI logic should be added here.
package domain

import (
	bbserrors "bbs-lab/errors"
)

type PoolKind string

const (
	AgentPool    PoolKind = "agent"
	ObserverPool PoolKind = "observer"
	// PersonaPool marks automated channel members. Personas hold no slot
	// and never count against either pool's capacity.
	PersonaPool PoolKind = "automated"
)

// SlotPool hands out the lowest free number in [1, capacity].
// Slots are released out of order, so a simple counter is not enough:
// the pool keeps an assignment bitmap and scans from 1 upward.
// SlotPool is not safe for concurrent use; the registry serializes access.
type SlotPool struct {
	kind     PoolKind
	capacity int
	assigned []bool // index 0 unused, slots are 1-based
	count    int
}

func NewSlotPool(kind PoolKind, capacity int) *SlotPool {
	return &SlotPool{
		kind:     kind,
		capacity: capacity,
		assigned: make([]bool, capacity+1),
	}
}

// Allocate picks the lowest free slot number.
// A full pool returns ErrCapacityExceeded without mutating anything;
// the caller must refuse the connection, never queue it.
func (p *SlotPool) Allocate() (int, error) {
	if p.count >= p.capacity {
		return 0, bbserrors.ErrCapacityExceeded
	}
	for n := 1; n <= p.capacity; n++ {
		if !p.assigned[n] {
			p.assigned[n] = true
			p.count++
			return n, nil
		}
	}
	// count said a slot was free; the bitmap disagreed
	return 0, bbserrors.ErrCapacityExceeded
}

// Release returns a slot to the free set. Releasing an unassigned or
// out-of-range number is a no-op, so teardown paths may call it blindly.
func (p *SlotPool) Release(n int) {
	if n < 1 || n > p.capacity || !p.assigned[n] {
		return
	}
	p.assigned[n] = false
	p.count--
}

func (p *SlotPool) Kind() PoolKind { return p.kind }

func (p *SlotPool) Capacity() int { return p.capacity }

// Assigned returns the live count of held slots.
func (p *SlotPool) Assigned() int { return p.count }

func (p *SlotPool) Holds(n int) bool {
	return n >= 1 && n <= p.capacity && p.assigned[n]
}
