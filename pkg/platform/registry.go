package platform

import (
	"fmt"

	"github.com/eimribar/ads-command-center/pkg/models"
	"github.com/eimribar/ads-command-center/pkg/validation"
)

// Status is the configuration state of one platform.
type Status struct {
	ID         models.PlatformID `json:"id"`
	Name       string            `json:"name"`
	Configured bool              `json:"configured"`
}

// Registry holds the adapters in their fixed declaration order. It never
// caches configuration state.
type Registry struct {
	adapters []Adapter
}

// NewRegistry returns a registry over adapters. Duplicate IDs are rejected.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	seen := make(map[models.PlatformID]bool, len(adapters))
	for _, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("nil adapter")
		}
		if seen[a.ID()] {
			return nil, fmt.Errorf("duplicate adapter for %s", a.ID())
		}
		seen[a.ID()] = true
	}
	return &Registry{adapters: append([]Adapter(nil), adapters...)}, nil
}

// All returns every adapter in declaration order.
func (r *Registry) All() []Adapter {
	return append([]Adapter(nil), r.adapters...)
}

// Configured returns the adapters whose credentials are currently present.
func (r *Registry) Configured() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		if a.IsConfigured() {
			out = append(out, a)
		}
	}
	return out
}

// AdPlatforms returns the configured adapters that sell ad inventory.
func (r *Registry) AdPlatforms() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, a := range r.Configured() {
		if a.ID().IsAdPlatform() {
			out = append(out, a)
		}
	}
	return out
}

// Get returns the adapter for id.
func (r *Registry) Get(id models.PlatformID) (Adapter, bool) {
	for _, a := range r.adapters {
		if a.ID() == id {
			return a, true
		}
	}
	return nil, false
}

// Lookup resolves a user supplied platform name or alias. Unknown names are
// validation errors.
func (r *Registry) Lookup(name string) (Adapter, error) {
	id, ok := models.ParsePlatformID(name)
	if !ok {
		return nil, validation.Errorf("platform", "unknown platform %q", name)
	}
	a, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("platform %s is not available", id.DisplayName())
	}
	return a, nil
}

// Statuses reports the configuration state of every platform.
func (r *Registry) Statuses() []Status {
	out := make([]Status, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, Status{ID: a.ID(), Name: a.Name(), Configured: a.IsConfigured()})
	}
	return out
}
