// Package runtime owns the live state of the real-time core: slot pools,
// channel membership, and the relay that mutates them. It orchestrates
// the system without containing rendering or persistence logic.
package runtime

import (
	"bbs-lab/domain"
	"sync"
)

// SlotRegistry serializes access to the two finite slot pools.
// Each pool has its own mutex so agent churn never contends with
// observer churn; online counts are derived from the pools, never
// duplicated elsewhere.
type SlotRegistry struct {
	agentMu    sync.Mutex
	agents     *domain.SlotPool
	observerMu sync.Mutex
	observers  *domain.SlotPool
}

func NewSlotRegistry(agentCapacity, observerCapacity int) *SlotRegistry {
	return &SlotRegistry{
		agents:    domain.NewSlotPool(domain.AgentPool, agentCapacity),
		observers: domain.NewSlotPool(domain.ObserverPool, observerCapacity),
	}
}

// Allocate returns the lowest free slot for the kind, or
// ErrCapacityExceeded. It never blocks waiting for capacity.
func (r *SlotRegistry) Allocate(kind domain.PoolKind) (int, error) {
	pool, mu := r.pool(kind)
	mu.Lock()
	defer mu.Unlock()
	return pool.Allocate()
}

// Release is idempotent; releasing a free slot is a no-op.
func (r *SlotRegistry) Release(kind domain.PoolKind, slot int) {
	pool, mu := r.pool(kind)
	mu.Lock()
	defer mu.Unlock()
	pool.Release(slot)
}

// Online reports the live count of assigned slots for the kind.
func (r *SlotRegistry) Online(kind domain.PoolKind) int {
	pool, mu := r.pool(kind)
	mu.Lock()
	defer mu.Unlock()
	return pool.Assigned()
}

func (r *SlotRegistry) Capacity(kind domain.PoolKind) int {
	pool, _ := r.pool(kind)
	return pool.Capacity()
}

func (r *SlotRegistry) pool(kind domain.PoolKind) (*domain.SlotPool, *sync.Mutex) {
	if kind == domain.AgentPool {
		return r.agents, &r.agentMu
	}
	return r.observers, &r.observerMu
}
