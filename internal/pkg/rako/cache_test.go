package rako

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

func TestLevelCache_ChannelOrdering(t *testing.T) {
	t.Parallel()

	c := NewLevelCache()
	c.SetChannelLevel(5, 3, 1, 64)
	c.SetChannelLevel(5, 1, 1, 255)
	c.SetChannelLevel(5, 2, 1, 128)
	c.SetChannelLevel(5, 1, 2, 192) // other scene
	c.SetChannelLevel(6, 1, 1, 10)  // other room

	assert.Equal(t, []model.ChannelLevel{
		{Channel: 1, Brightness: 255},
		{Channel: 2, Brightness: 128},
		{Channel: 3, Brightness: 64},
	}, c.GetChannelLevels(5, 1))
}

func TestLevelCache_UnknownDefaultsToZero(t *testing.T) {
	t.Parallel()

	c := NewLevelCache()
	assert.Equal(t, uint8(0), c.GetChannelLevel(1, 1, 1))
	assert.Empty(t, c.GetChannelLevels(1, 1))
}

func TestLevelCache_Overwrite(t *testing.T) {
	t.Parallel()

	c := NewLevelCache()
	c.SetChannelLevel(5, 1, 1, 255)
	c.SetChannelLevel(5, 1, 1, 32)
	assert.Equal(t, uint8(32), c.GetChannelLevel(5, 1, 1))
}

func TestSceneCache(t *testing.T) {
	t.Parallel()

	c := NewSceneCache()
	assert.Equal(t, 0, c.Get(5, 0))
	assert.Equal(t, 1, c.Get(5, 1))

	c.Set(5, 3)
	assert.Equal(t, 3, c.Get(5, 0))

	c.Set(5, 0)
	assert.Equal(t, 0, c.Get(5, 1), "an explicit scene 0 beats the default")
}
