package provider

import (
	"github.com/hanlulong/openecon-data-sub002/internal/breaker"
	"github.com/hanlulong/openecon-data-sub002/internal/cache"
	"github.com/hanlulong/openecon-data-sub002/internal/httpclient"
)

// Deps bundles the shared infrastructure every adapter wires through: one
// HTTP pool, one circuit breaker registry, one cache, one rate limiter
// registry, shared rather than duplicated per adapter since the
// registries are already keyed by provider name.
type Deps struct {
	Pool *httpclient.Pool
	Breakers *breaker.Registry
	Cache *cache.Cache
	Limiters *Limiters
}

// RateLimit describes one provider's token-bucket budget.
type RateLimit struct {
	RPS float64
	Burst int
}

// Registry holds every configured Adapter, keyed by name, and is what the
// orchestrator consults to look up each provider name in a chain produced
// by internal/router.
type Registry struct {
	adapters map[string]Adapter
	order []string
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

func (r *Registry) Register(a Adapter) {
	name := a.Name()
	if _, exists := r.adapters[name]; !exists {
 r.order = append(r.order, name)
	}
	r.adapters[name] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns provider names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
