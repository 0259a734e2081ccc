package provider

import "sync/atomic"

// Container holds the gateway's single live Registry behind a copy-on-write
// pointer swap: rebuilds construct a fresh Registry and atomically replace
// the pointer, so readers holding a handle observe the old registry until
// they release it.
type Container struct {
	ptr atomic.Pointer[Registry]
}

// NewContainer wraps an initial (possibly empty) Registry.
func NewContainer(initial *Registry) *Container {
	c := &Container{}
	if initial == nil {
		initial = New()
	}
	c.ptr.Store(initial)
	return c
}

// Load returns the currently live Registry snapshot.
func (c *Container) Load() *Registry { return c.ptr.Load() }

// Swap atomically replaces the live Registry with next.
func (c *Container) Swap(next *Registry) { c.ptr.Store(next) }
