package entity

import (
	"context"

	"github.com/anicoll/rako-integration/internal/pkg/model"
	"github.com/anicoll/rako-integration/internal/pkg/rako"
)

// Light adapts one dimmable circuit, or a whole room when Channel is 0,
// into a brightness-driven entity.
type Light struct {
	base
	brightness uint8
}

// NewLight builds a light seeded from the bridge caches so its first
// reported state matches what the bridge last told us.
func NewLight(cfg Config) *Light {
	l := &Light{base: newBase(cfg)}

	scene := cfg.Caches.SceneOf(cfg.Room, 0)
	if cfg.Channel == 0 {
		l.brightness = rako.SceneToBrightness(scene)
	} else {
		l.brightness = cfg.Caches.ChannelLevel(cfg.Room, cfg.Channel, scene)
	}
	return l
}

// Brightness returns the current 0-255 level.
func (l *Light) Brightness() uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.brightness
}

// State returns a snapshot for publication.
func (l *Light) State() model.EntityState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

func (l *Light) stateLocked() model.EntityState {
	return model.EntityState{
		UniqueID:   l.uniqueID,
		Kind:       model.KindLight,
		Name:       l.name,
		Room:       l.room,
		Channel:    l.channel,
		Available:  l.available,
		Brightness: l.brightness,
	}
}

// SetBrightness commands the bridge and, on success, records the new
// level. Room-addressed lights translate brightness to the nearest scene.
// State is published either way so availability changes propagate.
func (l *Light) SetBrightness(ctx context.Context, brightness uint8) error {
	send := func(cctx context.Context) error {
		if l.channel == 0 {
			return l.cmd.SetRoomScene(cctx, l.room, rako.BrightnessToScene(brightness))
		}
		return l.cmd.SetChannelBrightness(cctx, l.room, l.channel, brightness)
	}
	err := l.execute(ctx, send, func() { l.brightness = brightness })
	l.notify(l.State())
	return err
}

// TurnOn raises the light to full.
func (l *Light) TurnOn(ctx context.Context) error {
	return l.SetBrightness(ctx, 255)
}

// TurnOff drops the light to zero.
func (l *Light) TurnOff(ctx context.Context) error {
	return l.SetBrightness(ctx, 0)
}

// Apply maps an inbound command payload onto the adapter. Brightness, when
// present, wins over the on/off flag.
func (l *Light) Apply(ctx context.Context, cmd model.Command) error {
	switch {
	case cmd.Brightness != nil:
		return l.SetBrightness(ctx, *cmd.Brightness)
	case cmd.State != nil && *cmd.State:
		return l.TurnOn(ctx)
	case cmd.State != nil:
		return l.TurnOff(ctx)
	}
	return nil
}

// UpdateBrightness is the push path: the bridge reported a new level, so
// the adapter adopts it without issuing a command.
func (l *Light) UpdateBrightness(brightness uint8) {
	l.mu.Lock()
	l.brightness = brightness
	state := l.stateLocked()
	l.mu.Unlock()

	l.notify(state)
}
