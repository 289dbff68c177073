package pool

import (
	"fmt"
	"sync"
)

// Allocator is the type-erased face of a Pool, used by Registry.
type Allocator interface {
	Allocate() Handle
	Deallocate(h Handle)
	ESize() uintptr
	Len() int
}

// Registry keeps one pool per pool id, typically one per record type.
type Registry struct {
	mu    sync.Mutex
	pools map[string]Allocator
}

func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]Allocator)}
}

// Register binds a pool to an id. Registering an id twice is an error.
func (r *Registry) Register(poolID string, a Allocator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.pools[poolID]; exists {
		return fmt.Errorf("pool %s already registered", poolID)
	}
	r.pools[poolID] = a
	return nil
}

// Lookup returns the pool registered under poolID.
func (r *Registry) Lookup(poolID string) (Allocator, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool %s not registered", poolID)
	}
	return a, nil
}

func (r *Registry) Allocate(poolID string) (Handle, error) {
	a, err := r.Lookup(poolID)
	if err != nil {
		return NilHandle, err
	}
	return a.Allocate(), nil
}

func (r *Registry) Deallocate(h Handle, poolID string) error {
	a, err := r.Lookup(poolID)
	if err != nil {
		return err
	}
	a.Deallocate(h)
	return nil
}

func (r *Registry) ESize(poolID string) (uintptr, error) {
	a, err := r.Lookup(poolID)
	if err != nil {
		return 0, err
	}
	return a.ESize(), nil
}

// Unregister forgets poolID; the pool itself is left to its owner.
func (r *Registry) Unregister(poolID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pools, poolID)
}

// IDs lists the registered pool ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	return ids
}
