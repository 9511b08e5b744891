package entity

import (
	"context"

	"github.com/anicoll/rako-integration/internal/pkg/model"
	"github.com/anicoll/rako-integration/internal/pkg/rako"
)

// defaultOnPercentage is used when a fan is switched on without an
// explicit speed.
const defaultOnPercentage = 100

// Fan adapts a fan speed controller wired to a dimmer circuit. The
// protocol only speaks 0-255 brightness, so percentages are translated at
// this boundary.
type Fan struct {
	base
	percentage int
}

// NewFan builds a fan seeded from the bridge caches.
func NewFan(cfg Config) *Fan {
	f := &Fan{base: newBase(cfg)}

	scene := cfg.Caches.SceneOf(cfg.Room, 0)
	var brightness uint8
	if cfg.Channel == 0 {
		brightness = rako.SceneToBrightness(scene)
	} else {
		brightness = cfg.Caches.ChannelLevel(cfg.Room, cfg.Channel, scene)
	}
	f.percentage = model.BrightnessToPercent(brightness)
	return f
}

// Percentage returns the current 0-100 speed.
func (f *Fan) Percentage() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.percentage
}

// State returns a snapshot for publication.
func (f *Fan) State() model.EntityState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Fan) stateLocked() model.EntityState {
	return model.EntityState{
		UniqueID:   f.uniqueID,
		Kind:       model.KindFan,
		Name:       f.name,
		Room:       f.room,
		Channel:    f.channel,
		Available:  f.available,
		Percentage: f.percentage,
	}
}

// SetPercentage commands the bridge with the equivalent brightness and, on
// success, records the new speed. State is published either way so
// availability changes propagate.
func (f *Fan) SetPercentage(ctx context.Context, percentage int) error {
	brightness := model.PercentToBrightness(percentage)
	send := func(cctx context.Context) error {
		if f.channel == 0 {
			return f.cmd.SetRoomScene(cctx, f.room, rako.BrightnessToScene(brightness))
		}
		return f.cmd.SetChannelBrightness(cctx, f.room, f.channel, brightness)
	}
	err := f.execute(ctx, send, func() { f.percentage = percentage })
	f.notify(f.State())
	return err
}

// TurnOn starts the fan at full speed.
func (f *Fan) TurnOn(ctx context.Context) error {
	return f.SetPercentage(ctx, defaultOnPercentage)
}

// TurnOff stops the fan.
func (f *Fan) TurnOff(ctx context.Context) error {
	return f.SetPercentage(ctx, 0)
}

// Apply maps an inbound command payload onto the adapter. An explicit
// percentage wins over the on/off flag.
func (f *Fan) Apply(ctx context.Context, cmd model.Command) error {
	switch {
	case cmd.Percentage != nil:
		return f.SetPercentage(ctx, *cmd.Percentage)
	case cmd.State != nil && *cmd.State:
		return f.TurnOn(ctx)
	case cmd.State != nil:
		return f.TurnOff(ctx)
	}
	return nil
}

// UpdatePercentage is the push path: the bridge reported a new level, so
// the adapter adopts it without issuing a command.
func (f *Fan) UpdatePercentage(percentage int) {
	f.mu.Lock()
	f.percentage = percentage
	state := f.stateLocked()
	f.mu.Unlock()

	f.notify(state)
}
