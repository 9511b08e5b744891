package bridge

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// registry holds the subscribers for one bridge, split by capability so
// dispatch never probes concrete types. Its mutex covers the maps only;
// listener lifecycle transitions are serialized separately by the
// bridge's lifecycle mutex so dispatch lookups never contend with a
// blocked shutdown.
type registry struct {
	mu     sync.RWMutex
	lights map[string]BrightnessSubscriber
	fans   map[string]PercentageSubscriber
}

func newRegistry() *registry {
	return &registry{
		lights: make(map[string]BrightnessSubscriber),
		fans:   make(map[string]PercentageSubscriber),
	}
}

// register stores the subscriber under its unique ID and returns the new
// total size. Re-registering an ID overwrites.
func (r *registry) register(s Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := s.(type) {
	case BrightnessSubscriber:
		r.lights[e.UniqueID()] = e
	case PercentageSubscriber:
		r.fans[e.UniqueID()] = e
	}
	return len(r.lights) + len(r.fans)
}

// deregister removes the subscriber and returns the new total size. A
// no-op if it was never registered.
func (r *registry) deregister(s Subscriber) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := s.(type) {
	case BrightnessSubscriber:
		delete(r.lights, e.UniqueID())
	case PercentageSubscriber:
		delete(r.fans, e.UniqueID())
	}
	return len(r.lights) + len(r.fans)
}

// lookup is the combined view over both capability maps. If an ID somehow
// exists in both, the light map wins.
func (r *registry) lookup(uniqueID string) (Subscriber, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.lights[uniqueID]; ok {
		return e, true
	}
	if e, ok := r.fans[uniqueID]; ok {
		return e, true
	}
	return nil, false
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lights) + len(r.fans)
}

func (r *registry) uniqueIDs() []string {
	r.mu.RLock()
	ids := append(lo.Keys(r.lights), lo.Keys(r.fans)...)
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Lookup resolves a subscriber by unique ID.
func (b *Bridge) Lookup(uniqueID string) (Subscriber, bool) {
	return b.registry.lookup(uniqueID)
}

// UniqueIDs returns the IDs of all registered entities, sorted.
func (b *Bridge) UniqueIDs() []string {
	return b.registry.uniqueIDs()
}

// Size returns the number of registered entities.
func (b *Bridge) Size() int {
	return b.registry.size()
}
