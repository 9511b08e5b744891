package model

import (
	"fmt"
	"math"
	"strings"
)

// StatusMessage is a state update pushed by the Rako bridge. The two
// concrete variants are ChannelStatus and SceneStatus; consumers must
// type-switch and ignore anything they do not recognise.
type StatusMessage interface {
	Room() int
}

// ChannelStatus reports the brightness of a single channel.
type ChannelStatus struct {
	RoomID     int
	ChannelID  int
	Brightness uint8
}

func (m ChannelStatus) Room() int { return m.RoomID }

// SceneStatus reports that a room switched to a scene. The per-channel
// levels for the scene live in the bridge's level cache.
type SceneStatus struct {
	RoomID int
	Scene  int
}

func (m SceneStatus) Room() int { return m.RoomID }

// UniqueID derives the stable identifier for an entity from the bridge MAC
// and the entity's room/channel address. Room-addressed entities use
// channel 0. The mapping is injective: no two (room, channel) pairs on the
// same bridge can collide.
func UniqueID(mac string, room, channel int) string {
	m := strings.ToLower(strings.NewReplacer(":", "", "-", "").Replace(mac))
	return fmt.Sprintf("rako_%s_r%d_c%d", m, room, channel)
}

// BrightnessToPercent converts protocol brightness (0-255) to a fan speed
// percentage (0-100).
func BrightnessToPercent(brightness uint8) int {
	if brightness == 0 {
		return 0
	}
	return int(math.Round(float64(brightness) / 255 * 100))
}

// PercentToBrightness converts a fan speed percentage (0-100) to protocol
// brightness (0-255).
func PercentToBrightness(percent int) uint8 {
	if percent <= 0 {
		return 0
	}
	if percent >= 100 {
		return 255
	}
	return uint8(math.Round(float64(percent) / 100 * 255))
}
