package model

// EntityKind distinguishes the two entity capabilities the bridge exposes.
type EntityKind string

const (
	KindLight EntityKind = "light"
	KindFan   EntityKind = "fan"
)

// EntityState is the full published state of an entity. It is what goes
// out to every registered publisher (MQTT, postgres, websocket stream).
type EntityState struct {
	UniqueID  string     `json:"unique_id"`
	Kind      EntityKind `json:"kind"`
	Name      string     `json:"name"`
	Room      int        `json:"room"`
	Channel   int        `json:"channel"`
	Available bool       `json:"available"`

	// Brightness is set for lights (0-255), Percentage for fans (0-100).
	Brightness uint8 `json:"brightness,omitempty"`
	Percentage int   `json:"percentage,omitempty"`
}

// On reports whether the entity is currently on.
func (s EntityState) On() bool {
	if s.Kind == KindFan {
		return s.Percentage > 0
	}
	return s.Brightness > 0
}

// Command is a request to change an entity, parsed from an MQTT command
// payload or an admin API call. Exactly one of the optional fields is
// normally set; State alone means plain on/off.
type Command struct {
	State      *bool  `json:"-"`
	Brightness *uint8 `json:"brightness,omitempty"`
	Percentage *int   `json:"percentage,omitempty"`
}
