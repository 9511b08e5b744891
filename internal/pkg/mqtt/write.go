package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// RegisterEntity publishes the retained discovery config for an entity
// and subscribes to its command topic. Idempotent per unique ID.
func (s *service) RegisterEntity(state model.EntityState) error {
	s.mu.Lock()
	if _, exists := s.configured[state.UniqueID]; exists {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	payload, err := json.Marshal(s.discoveryConfig(state))
	if err != nil {
		return err
	}
	token := s.client.Publish(s.configTopic(string(state.Kind), state.UniqueID), 1, true, payload)
	if !token.WaitTimeout(time.Second * 5) {
		return fmt.Errorf("timed out announcing entity %s", state.UniqueID)
	}
	if err := token.Error(); err != nil {
		return err
	}

	token = s.client.Subscribe(s.commandTopic(state.UniqueID), 1, s.wrapHandler(state.UniqueID))
	if !token.WaitTimeout(time.Second * 5) {
		return fmt.Errorf("timed out subscribing for entity %s", state.UniqueID)
	}
	if err := token.Error(); err != nil {
		return err
	}

	s.mu.Lock()
	s.configured[state.UniqueID] = state.Kind
	s.mu.Unlock()
	return nil
}

// DeregisterEntity clears the retained discovery config so Home Assistant
// drops the entity, and unsubscribes its command topic.
func (s *service) DeregisterEntity(uniqueID string) error {
	s.mu.Lock()
	kind, exists := s.configured[uniqueID]
	delete(s.configured, uniqueID)
	s.mu.Unlock()
	if !exists {
		return nil
	}

	token := s.client.Unsubscribe(s.commandTopic(uniqueID))
	token.WaitTimeout(time.Second * 5)
	if err := token.Error(); err != nil {
		return err
	}

	// An empty retained payload deletes the discovery entry.
	token = s.client.Publish(s.configTopic(string(kind), uniqueID), 1, true, []byte{})
	token.WaitTimeout(time.Second * 5)
	return token.Error()
}

// Write publishes the retained state and availability for one entity.
func (s *service) Write(ctx context.Context, state model.EntityState) error {
	var statePayload any
	if state.Kind == model.KindFan {
		statePayload = model.FanStatePayload{
			State:      model.OnOff(state.On()),
			Percentage: state.Percentage,
		}
	} else {
		statePayload = model.LightStatePayload{
			State:      model.OnOff(state.On()),
			Brightness: state.Brightness,
		}
	}
	payload, err := json.Marshal(statePayload)
	if err != nil {
		return err
	}

	token := s.client.Publish(s.stateTopic(state.UniqueID), 0, true, payload)
	if !token.WaitTimeout(time.Second * 10) {
		return fmt.Errorf("timed out publishing state for %s", state.UniqueID)
	}
	if err := token.Error(); err != nil {
		return err
	}

	availability := model.PayloadAvailable
	if !state.Available {
		availability = model.PayloadUnavailable
	}
	token = s.client.Publish(s.availabilityTopic(state.UniqueID), 0, true, []byte(availability))
	token.WaitTimeout(time.Second * 10)
	return token.Error()
}

// wrapHandler parses command payloads and shields the client's router
// from handler panics; a panicking callback would otherwise take down the
// whole MQTT connection.
func (s *service) wrapHandler(uniqueID string) paho_mqtt.MessageHandler {
	return func(_ paho_mqtt.Client, msg paho_mqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("command handler panicked",
					zap.String("unique_id", uniqueID),
					zap.Any("panic", r))
			}
		}()

		cmd, err := parseCommand(msg.Payload())
		if err != nil {
			s.logger.Error("dropping malformed command",
				zap.String("unique_id", uniqueID),
				zap.ByteString("payload", msg.Payload()),
				zap.Error(err))
			return
		}
		s.handler(context.Background(), uniqueID, cmd)
	}
}

// parseCommand accepts either the json schema payload or a bare ON/OFF
// string, which is what Home Assistant sends for default-schema entities.
func parseCommand(payload []byte) (model.Command, error) {
	trimmed := strings.TrimSpace(string(payload))
	if state, ok := parseOnOff(trimmed); ok {
		return model.Command{State: &state}, nil
	}

	var raw model.CommandPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		return model.Command{}, err
	}
	cmd := model.Command{
		Brightness: raw.Brightness,
		Percentage: raw.Percentage,
	}
	if state, ok := parseOnOff(raw.State); ok {
		cmd.State = &state
	}
	return cmd, nil
}

func parseOnOff(s string) (bool, bool) {
	switch strings.ToUpper(s) {
	case "ON":
		return true, true
	case "OFF":
		return false, true
	}
	return false, false
}

func (s *service) discoveryConfig(state model.EntityState) model.DiscoveryConfig {
	return model.DiscoveryConfig{
		Tilda:             fmt.Sprintf("%s/%s", s.cfg.TopicPrefix, state.UniqueID),
		Name:              state.Name,
		UniqueID:          state.UniqueID,
		ObjectID:          strings.ReplaceAll(slug.Make(state.Name), "-", "_"),
		Schema:            "json",
		StateTopic:        "~/state",
		CommandTopic:      "~/set",
		AvailabilityTopic: "~/availability",
		Brightness:        state.Kind == model.KindLight,
		Device: model.RegisterDevice{
			Name:         s.cfg.BridgeName,
			Identifiers:  []string{s.cfg.BridgeMAC},
			Manufacturer: "Rako Controls",
			Model:        "RA/WA Bridge",
		},
	}
}

func (s *service) configTopic(component, uniqueID string) string {
	return fmt.Sprintf("%s/%s/%s/config", s.cfg.DiscoveryPrefix, component, uniqueID)
}

func (s *service) stateTopic(uniqueID string) string {
	return fmt.Sprintf("%s/%s/state", s.cfg.TopicPrefix, uniqueID)
}

func (s *service) availabilityTopic(uniqueID string) string {
	return fmt.Sprintf("%s/%s/availability", s.cfg.TopicPrefix, uniqueID)
}

func (s *service) commandTopic(uniqueID string) string {
	return fmt.Sprintf("%s/%s/set", s.cfg.TopicPrefix, uniqueID)
}
