package runtime

import (
	"bbs-lab/domain"
	"bbs-lab/errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlotRegistry_PoolsAreIndependent(t *testing.T) {
	req := require.New(t)
	registry := NewSlotRegistry(2, 3)

	// Given a full agent pool
	for i := 0; i < 2; i++ {
		_, err := registry.Allocate(domain.AgentPool)
		req.NoError(err)
	}
	_, err := registry.Allocate(domain.AgentPool)
	req.ErrorIs(err, errors.ErrCapacityExceeded)

	// Then observers still get slots from their own pool
	slot, err := registry.Allocate(domain.ObserverPool)
	req.NoError(err)
	req.Equal(1, slot)

	req.Equal(2, registry.Online(domain.AgentPool))
	req.Equal(1, registry.Online(domain.ObserverPool))
	req.Equal(2, registry.Capacity(domain.AgentPool))
	req.Equal(3, registry.Capacity(domain.ObserverPool))
}

func TestSlotRegistry_ReleaseMakesSlotReusable(t *testing.T) {
	req := require.New(t)
	registry := NewSlotRegistry(2, 2)

	first, err := registry.Allocate(domain.AgentPool)
	req.NoError(err)
	_, err = registry.Allocate(domain.AgentPool)
	req.NoError(err)

	// When the first slot is released
	registry.Release(domain.AgentPool, first)

	// Then the next allocation reuses exactly that number
	slot, err := registry.Allocate(domain.AgentPool)
	req.NoError(err)
	req.Equal(first, slot)
}

func TestSlotRegistry_ConcurrentChurn(t *testing.T) {
	req := require.New(t)
	const capacity = 8
	registry := NewSlotRegistry(capacity, capacity)

	// When many goroutines allocate and release concurrently
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				slot, err := registry.Allocate(domain.ObserverPool)
				if err != nil {
					continue
				}
				registry.Release(domain.ObserverPool, slot)
			}
		}()
	}
	wg.Wait()

	// Then the pool drains back to empty: nothing was double-counted
	req.Equal(0, registry.Online(domain.ObserverPool))
}
