package rako

// Scene numbers map to fixed brightness levels on Rako hardware: scene 1
// is full on, scenes 2-4 step down, scene 0 is off.
var sceneBrightness = [maxScene + 1]uint8{0: 0, 1: 255, 2: 192, 3: 128, 4: 64}

// SceneToBrightness converts a scene number to its nominal brightness.
// Out-of-range scenes convert to 0.
func SceneToBrightness(scene int) uint8 {
	if scene < 0 || scene > maxScene {
		return 0
	}
	return sceneBrightness[scene]
}

// BrightnessToScene converts a brightness to the nearest scene number:
// the scene whose nominal brightness is closest, with 0 reserved for off.
func BrightnessToScene(brightness uint8) int {
	if brightness == 0 {
		return 0
	}
	best, bestDiff := 1, 255
	for scene := 1; scene <= maxScene; scene++ {
		diff := int(brightness) - int(sceneBrightness[scene])
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = scene, diff
		}
	}
	return best
}
