// Package entity implements the light and fan adapters exposed to Home
// Assistant. Adapters hold local state, issue protocol commands with a
// bounded timeout, and track availability.
package entity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// DefaultCommandTimeout bounds every command round-trip to the bridge.
const DefaultCommandTimeout = 3 * time.Second

// Commander issues commands to the bridge. Satisfied by *rako.Bridge.
type Commander interface {
	SetRoomScene(ctx context.Context, room, scene int) error
	SetChannelBrightness(ctx context.Context, room, channel int, brightness uint8) error
}

// Caches resolves initial values from the bridge's in-memory scene and
// level caches, without any network call. Satisfied by *rako.Bridge.
type Caches interface {
	SceneOf(room, def int) int
	ChannelLevel(room, channel, scene int) uint8
}

// Notify is called with a state snapshot after every local mutation so
// observers (MQTT, history, event stream) see the change.
type Notify func(model.EntityState)

// Config is the shared construction input for lights and fans.
// Channel 0 means the entity is room-addressed: commands go out as room
// scenes and initial values derive from the room's current scene.
type Config struct {
	Commander Commander
	Caches    Caches
	Notify    Notify
	MAC       string
	Room      int
	Channel   int
	Name      string
	// Timeout defaults to DefaultCommandTimeout when zero.
	Timeout time.Duration
}

func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultCommandTimeout
}

// base carries the adapter state shared by both capabilities.
type base struct {
	cmd      Commander
	notify   Notify
	logger   *zap.Logger
	timeout  time.Duration
	uniqueID string
	name     string
	room     int
	channel  int

	mu        sync.Mutex
	available bool
}

func newBase(cfg Config) base {
	notify := cfg.Notify
	if notify == nil {
		notify = func(model.EntityState) {}
	}
	return base{
		cmd:       cfg.Commander,
		notify:    notify,
		logger:    zap.L(),
		timeout:   cfg.timeout(),
		uniqueID:  model.UniqueID(cfg.MAC, cfg.Room, cfg.Channel),
		name:      cfg.Name,
		room:      cfg.Room,
		channel:   cfg.Channel,
		available: true,
	}
}

// UniqueID returns the entity's stable identifier.
func (e *base) UniqueID() string { return e.uniqueID }

// Name returns the display name.
func (e *base) Name() string { return e.name }

// Available reports whether the last command round-trip succeeded.
func (e *base) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// execute runs one command bounded by the adapter timeout. On success it
// applies onSuccess under the state lock and marks the entity available;
// on failure it marks it unavailable, logging only on the transition so
// repeated failures do not storm the log.
func (e *base) execute(ctx context.Context, send func(context.Context) error, onSuccess func()) error {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := send(cctx)

	e.mu.Lock()
	if err != nil {
		wasAvailable := e.available
		e.available = false
		e.mu.Unlock()
		if wasAvailable {
			e.logger.Error("command failed, marking entity unavailable",
				zap.String("unique_id", e.uniqueID),
				zap.Error(err))
		}
		return err
	}
	onSuccess()
	e.available = true
	e.mu.Unlock()
	return nil
}
