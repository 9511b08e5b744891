// Package rako talks the Rako bridge's UDP protocol: it listens for
// pushed status messages, sends scene/brightness commands, and maintains
// the scene and level caches that mirror the bridge's own state tables.
package rako

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// BridgeInfo identifies one physical Rako bridge. Immutable after
// construction.
type BridgeInfo struct {
	Host string
	Port int
	Name string
	MAC  string
}

// Bridge is the protocol client for one physical bridge.
type Bridge struct {
	info   BridgeInfo
	levels *LevelCache
	scenes *SceneCache
	logger *zap.Logger
}

// NewBridge creates a protocol client. The caches start empty; seed them
// with SeedCaches before constructing entities so initial values resolve.
func NewBridge(info BridgeInfo) *Bridge {
	return &Bridge{
		info:   info,
		levels: NewLevelCache(),
		scenes: NewSceneCache(),
		logger: zap.L(),
	}
}

// Info returns the bridge identity.
func (b *Bridge) Info() BridgeInfo { return b.info }

// SeedCaches populates the scene level cache from the devices file.
func (b *Bridge) SeedCaches(df *model.DevicesFile) {
	for _, room := range df.Rooms {
		for _, sc := range room.Scenes {
			for _, lvl := range sc.Levels {
				b.levels.SetChannelLevel(room.ID, lvl.Channel, sc.Scene, lvl.Brightness)
			}
		}
	}
}

// ChannelLevels returns the per-channel brightness table for a scene in a
// room, in ascending channel order.
func (b *Bridge) ChannelLevels(room, scene int) []model.ChannelLevel {
	return b.levels.GetChannelLevels(room, scene)
}

// ChannelLevel returns the cached brightness of one channel for a scene.
func (b *Bridge) ChannelLevel(room, channel, scene int) uint8 {
	return b.levels.GetChannelLevel(room, channel, scene)
}

// SceneOf returns the room's current scene, or def if unknown.
func (b *Bridge) SceneOf(room, def int) int {
	return b.scenes.Get(room, def)
}

// OpenListener binds the bridge's UDP push port. The returned listener
// owns the socket; callers must Close it on every exit path.
func (b *Bridge) OpenListener(ctx context.Context) (*Listener, error) {
	lc := net.ListenConfig{}
	conn, err := lc.ListenPacket(ctx, "udp", fmt.Sprintf(":%d", b.info.Port))
	if err != nil {
		return nil, fmt.Errorf("binding push port %d: %w", b.info.Port, err)
	}
	b.logger.Debug("push listener opened", zap.String("addr", conn.LocalAddr().String()))
	return newListener(conn.(*net.UDPConn), b.levels, b.scenes, b.logger), nil
}

// SetRoomScene commands the whole room to a scene.
func (b *Bridge) SetRoomScene(ctx context.Context, room, scene int) error {
	if scene < 0 || scene > maxScene {
		return fmt.Errorf("%w: scene %d out of range", ErrBadCommand, scene)
	}
	return b.send(ctx, encodeRoomScene(room, scene))
}

// SetChannelBrightness commands a single channel to a brightness.
func (b *Bridge) SetChannelBrightness(ctx context.Context, room, channel int, brightness uint8) error {
	if channel <= 0 {
		return fmt.Errorf("%w: channel %d out of range", ErrBadCommand, channel)
	}
	return b.send(ctx, encodeChannelBrightness(room, channel, brightness))
}

func (b *Bridge) send(ctx context.Context, frame []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", fmt.Sprintf("%s:%d", b.info.Host, b.info.Port))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBridge, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return fmt.Errorf("%w: %w", ErrBridge, err)
		}
	}
	if _, err := conn.Write(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrBridge, err)
	}
	b.logger.Debug("command sent", zap.Binary("frame", frame))
	return nil
}
