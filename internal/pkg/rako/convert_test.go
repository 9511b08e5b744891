package rako

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSceneToBrightness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		scene    int
		expected uint8
	}{
		{scene: 0, expected: 0},
		{scene: 1, expected: 255},
		{scene: 2, expected: 192},
		{scene: 3, expected: 128},
		{scene: 4, expected: 64},
		{scene: 5, expected: 0},
		{scene: -1, expected: 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, SceneToBrightness(tc.scene), "scene %d", tc.scene)
	}
}

func TestBrightnessToScene(t *testing.T) {
	t.Parallel()

	tests := []struct {
		brightness uint8
		expected   int
	}{
		{brightness: 0, expected: 0},
		{brightness: 255, expected: 1},
		{brightness: 230, expected: 1},
		{brightness: 192, expected: 2},
		{brightness: 128, expected: 3},
		{brightness: 100, expected: 3},
		{brightness: 64, expected: 4},
		{brightness: 1, expected: 4},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, BrightnessToScene(tc.brightness), "brightness %d", tc.brightness)
	}
}

func TestSceneRoundTrip(t *testing.T) {
	t.Parallel()

	for scene := 0; scene <= maxScene; scene++ {
		assert.Equal(t, scene, BrightnessToScene(SceneToBrightness(scene)))
	}
}
