package model

import (
	"encoding/json"
	"fmt"
	"os"
)

// DevicesFile is the static device declaration for one bridge. XML
// discovery against the bridge is out of scope; installations declare
// their rooms and channels here instead.
type DevicesFile struct {
	Rooms []RoomConfig `json:"rooms"`
}

// RoomConfig declares one Rako room. Every room yields a room-addressed
// entity (channel 0) plus one entity per declared channel.
type RoomConfig struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	// Kind is the capability of the room-addressed entity and the default
	// for its channels: "light" or "fan".
	Kind     EntityKind      `json:"kind"`
	Channels []ChannelConfig `json:"channels"`
	// Scenes seeds the level cache: per scene number, the brightness each
	// channel takes when the scene is recalled.
	Scenes []SceneConfig `json:"scenes"`
}

// ChannelConfig declares one addressable load within a room.
type ChannelConfig struct {
	ID    int        `json:"id"`
	Title string     `json:"title"`
	Kind  EntityKind `json:"kind,omitempty"` // defaults to the room kind
}

// SceneConfig declares the channel levels of one scene in a room.
type SceneConfig struct {
	Scene  int            `json:"scene"`
	Levels []ChannelLevel `json:"levels"`
}

// ChannelLevel pairs a channel with a brightness, as stored in the level
// cache and as fanned out when a scene status arrives.
type ChannelLevel struct {
	Channel    int   `json:"channel"`
	Brightness uint8 `json:"brightness"`
}

// LoadDevicesFile reads and validates a devices file.
func LoadDevicesFile(path string) (*DevicesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading devices file: %w", err)
	}
	var df DevicesFile
	if err := json.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parsing devices file: %w", err)
	}
	if err := df.validate(); err != nil {
		return nil, err
	}
	return &df, nil
}

func (df *DevicesFile) validate() error {
	seenRooms := make(map[int]struct{}, len(df.Rooms))
	for _, room := range df.Rooms {
		if room.ID <= 0 {
			return fmt.Errorf("room %q: id must be positive", room.Title)
		}
		if _, ok := seenRooms[room.ID]; ok {
			return fmt.Errorf("room %d declared twice", room.ID)
		}
		seenRooms[room.ID] = struct{}{}

		if room.Kind != KindLight && room.Kind != KindFan {
			return fmt.Errorf("room %d: unknown kind %q", room.ID, room.Kind)
		}

		seenChannels := make(map[int]struct{}, len(room.Channels))
		for _, ch := range room.Channels {
			if ch.ID <= 0 {
				// Channel 0 is the room-addressed entity and is implicit.
				return fmt.Errorf("room %d: channel id must be positive", room.ID)
			}
			if _, ok := seenChannels[ch.ID]; ok {
				return fmt.Errorf("room %d: channel %d declared twice", room.ID, ch.ID)
			}
			seenChannels[ch.ID] = struct{}{}
			if ch.Kind != "" && ch.Kind != KindLight && ch.Kind != KindFan {
				return fmt.Errorf("room %d channel %d: unknown kind %q", room.ID, ch.ID, ch.Kind)
			}
		}
	}
	return nil
}
