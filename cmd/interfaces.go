package cmd

import (
	"context"
	"sort"

	"github.com/anicoll/rako-integration/internal/pkg/bridge"
	"github.com/anicoll/rako-integration/internal/pkg/rako"
	"github.com/anicoll/rako-integration/internal/pkg/server"
)

// rakoConnection narrows *rako.Bridge to what the bridge coordinator
// needs. The wrapper exists because OpenListener must return the
// coordinator's listener interface rather than the concrete type.
type rakoConnection struct {
	*rako.Bridge
}

func (c rakoConnection) OpenListener(ctx context.Context) (bridge.Listener, error) {
	return c.Bridge.OpenListener(ctx)
}

var _ bridge.Connection = rakoConnection{}

// directory is the lookup table behind the admin API and the MQTT
// command path. Immutable after startup.
type directory struct {
	byID map[string]server.Entity
}

func newDirectory() *directory {
	return &directory{byID: make(map[string]server.Entity)}
}

func (d *directory) add(e server.Entity) {
	d.byID[e.UniqueID()] = e
}

func (d *directory) Entity(uniqueID string) (server.Entity, bool) {
	e, ok := d.byID[uniqueID]
	return e, ok
}

func (d *directory) Entities() []server.Entity {
	entities := make([]server.Entity, 0, len(d.byID))
	for _, e := range d.byID {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].UniqueID() < entities[j].UniqueID()
	})
	return entities
}
