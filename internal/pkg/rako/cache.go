package rako

import (
	"sort"
	"sync"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

type levelKey struct {
	room    int
	channel int
	scene   int
}

// LevelCache mirrors the bridge's scene→channel-level table. Seeded from
// the devices file and refreshed from observed channel status traffic.
type LevelCache struct {
	mu     sync.RWMutex
	levels map[levelKey]uint8
}

func NewLevelCache() *LevelCache {
	return &LevelCache{levels: make(map[levelKey]uint8)}
}

// GetChannelLevels returns the (channel, brightness) pairs known for a
// scene in a room, in ascending channel order so scene fan-out is
// deterministic.
func (c *LevelCache) GetChannelLevels(room, scene int) []model.ChannelLevel {
	c.mu.RLock()
	var out []model.ChannelLevel
	for k, v := range c.levels {
		if k.room == room && k.scene == scene {
			out = append(out, model.ChannelLevel{Channel: k.channel, Brightness: v})
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Channel < out[j].Channel })
	return out
}

// GetChannelLevel returns the cached brightness for one channel in a
// scene, 0 if unknown.
func (c *LevelCache) GetChannelLevel(room, channel, scene int) uint8 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.levels[levelKey{room: room, channel: channel, scene: scene}]
}

// SetChannelLevel records a channel's brightness for a scene.
func (c *LevelCache) SetChannelLevel(room, channel, scene int, brightness uint8) {
	c.mu.Lock()
	c.levels[levelKey{room: room, channel: channel, scene: scene}] = brightness
	c.mu.Unlock()
}

// SceneCache tracks the current scene of each room, learned from scene
// status traffic.
type SceneCache struct {
	mu     sync.RWMutex
	scenes map[int]int
}

func NewSceneCache() *SceneCache {
	return &SceneCache{scenes: make(map[int]int)}
}

// Get returns the room's current scene, or def if the room has not been
// seen yet.
func (c *SceneCache) Get(room, def int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.scenes[room]; ok {
		return s
	}
	return def
}

// Set records the room's current scene.
func (c *SceneCache) Set(room, scene int) {
	c.mu.Lock()
	c.scenes[room] = scene
	c.mu.Unlock()
}
