package model

// Home Assistant MQTT discovery payloads. Shapes follow
// https://www.home-assistant.io/integrations/mqtt/ (json schema for
// lights, percentage fans).

// DiscoveryConfig is published retained to
// homeassistant/<component>/<unique_id>/config when an entity attaches.
type DiscoveryConfig struct {
	Tilda             string         `json:"~"`
	Name              string         `json:"name"`
	UniqueID          string         `json:"unique_id"`
	ObjectID          string         `json:"object_id,omitempty"`
	Schema            string         `json:"schema,omitempty"`
	StateTopic        string         `json:"state_topic"`
	CommandTopic      string         `json:"command_topic"`
	AvailabilityTopic string         `json:"availability_topic"`
	Brightness        bool           `json:"brightness,omitempty"`
	Device            RegisterDevice `json:"device"`
}

// RegisterDevice groups all entities of one bridge under a single device
// in the Home Assistant UI.
type RegisterDevice struct {
	Name          string   `json:"name"`
	Identifiers   []string `json:"identifiers"`
	Manufacturer  string   `json:"manufacturer"`
	Model         string   `json:"model,omitempty"`
	SuggestedArea string   `json:"suggested_area,omitempty"`
	ViaDevice     string   `json:"via_device,omitempty"`
}

// LightStatePayload is the retained JSON state for a light entity.
type LightStatePayload struct {
	State      string `json:"state"`
	Brightness uint8  `json:"brightness"`
}

// FanStatePayload is the retained JSON state for a fan entity.
type FanStatePayload struct {
	State      string `json:"state"`
	Percentage int    `json:"percentage"`
}

// CommandPayload is what Home Assistant publishes on an entity's command
// topic.
type CommandPayload struct {
	State      string `json:"state,omitempty"`
	Brightness *uint8 `json:"brightness,omitempty"`
	Percentage *int   `json:"percentage,omitempty"`
}

// Availability payloads published to the availability topic.
const (
	PayloadAvailable   = "online"
	PayloadUnavailable = "offline"
)

// OnOff renders a boolean as the ON/OFF strings Home Assistant expects.
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
