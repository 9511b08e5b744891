// Package publisher fans entity state out to every registered sink: MQTT,
// the state history database and the websocket event stream. Sinks fail
// independently; one broken sink never blocks the others.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	registeredPublishers = make(map[string]publisher)
	lastStates           sync.Map
)

type publisher interface {
	// Write publishes one entity state snapshot.
	Write(ctx context.Context, state model.EntityState) error
	RegisterEntity(state model.EntityState) error
	DeregisterEntity(uniqueID string) error
}

// RegisterPublisher adds a named sink. Call during startup, before any
// state flows; the registry is not mutated afterwards.
func RegisterPublisher(name string, p publisher) error {
	if _, ok := registeredPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registeredPublishers[name] = p
	return nil
}

// PublishState fans one snapshot out to every sink. Identical consecutive
// snapshots for an entity are suppressed so a chatty bridge does not turn
// into chatty sinks.
func PublishState(ctx context.Context, state model.EntityState) {
	if !shouldUpdate(state) {
		return
	}
	for name, p := range registeredPublishers {
		if err := p.Write(ctx, state); err != nil {
			zap.L().Error("failed to publish state",
				zap.Error(err),
				zap.String("publisher", name),
				zap.String("unique_id", state.UniqueID))
			continue
		}
		zap.L().Debug("published state",
			zap.String("publisher", name),
			zap.String("unique_id", state.UniqueID))
	}
}

// RegisterEntity announces a new entity to every sink.
func RegisterEntity(state model.EntityState) {
	for name, p := range registeredPublishers {
		if err := p.RegisterEntity(state); err != nil {
			zap.L().Error("failed to register entity",
				zap.Error(err),
				zap.String("publisher", name),
				zap.String("unique_id", state.UniqueID))
			continue
		}
		zap.L().Debug("registered entity",
			zap.String("publisher", name),
			zap.String("unique_id", state.UniqueID))
	}
}

// DeregisterEntity withdraws an entity from every sink.
func DeregisterEntity(uniqueID string) {
	lastStates.Delete(uniqueID)
	for name, p := range registeredPublishers {
		if err := p.DeregisterEntity(uniqueID); err != nil {
			zap.L().Error("failed to deregister entity",
				zap.Error(err),
				zap.String("publisher", name),
				zap.String("unique_id", uniqueID))
		}
	}
}

func shouldUpdate(state model.EntityState) bool {
	key := state.UniqueID
	fingerprint := fmt.Sprintf("%t_%d_%d", state.Available, state.Brightness, state.Percentage)

	old, exists := lastStates.Load(key)
	if exists && old.(string) == fingerprint {
		return false
	}
	lastStates.Store(key, fingerprint)
	return true
}
