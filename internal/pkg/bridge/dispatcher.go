package bridge

import (
	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
	"github.com/anicoll/rako-integration/internal/pkg/rako"
)

// applyStatus resolves a pushed status message into entity updates.
//
// Channel statuses update the one entity addressed by (room, channel).
// Scene statuses fan out: every channel level the cache knows for that
// scene becomes a synthetic channel status, then the room-addressed
// entity (channel 0) gets the scene's nominal brightness. Entities are
// mutated locally and synchronously; no network I/O happens here.
func (b *Bridge) applyStatus(msg model.StatusMessage) {
	switch m := msg.(type) {
	case model.ChannelStatus:
		b.updateEntity(m.RoomID, m.ChannelID, m.Brightness)
	case model.SceneStatus:
		for _, lvl := range b.conn.ChannelLevels(m.RoomID, m.Scene) {
			b.applyStatus(model.ChannelStatus{
				RoomID:     m.RoomID,
				ChannelID:  lvl.Channel,
				Brightness: lvl.Brightness,
			})
		}
		b.updateEntity(m.RoomID, 0, rako.SceneToBrightness(m.Scene))
	default:
		b.logger.Debug("ignoring unrecognised status message", zap.Any("message", msg))
	}
}

func (b *Bridge) updateEntity(room, channel int, brightness uint8) {
	uniqueID := model.UniqueID(b.conn.Info().MAC, room, channel)

	sub, ok := b.Lookup(uniqueID)
	if !ok {
		b.logger.Debug("no entity listening",
			zap.String("unique_id", uniqueID),
			zap.Int("room", room),
			zap.Int("channel", channel))
		return
	}

	switch e := sub.(type) {
	case BrightnessSubscriber:
		e.UpdateBrightness(brightness)
	case PercentageSubscriber:
		e.UpdatePercentage(model.BrightnessToPercent(brightness))
	}
}
