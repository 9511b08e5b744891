// Package mqtt publishes entities to Home Assistant over MQTT discovery
// and feeds inbound command payloads back into the adapters.
package mqtt

import (
	"context"
	"errors"
	"sync"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/anicoll/rako-integration/internal/pkg/model"
)

// CommandFunc is invoked for every command Home Assistant publishes on an
// entity's command topic.
type CommandFunc func(ctx context.Context, uniqueID string, cmd model.Command)

// Config holds the topic layout and the device identity shown in the
// Home Assistant UI.
type Config struct {
	// DiscoveryPrefix is Home Assistant's discovery root, normally
	// "homeassistant".
	DiscoveryPrefix string
	// TopicPrefix roots the state/command/availability topics, normally
	// "rako".
	TopicPrefix string
	BridgeName  string
	BridgeMAC   string
}

type service struct {
	client  paho_mqtt.Client
	cfg     Config
	handler CommandFunc
	logger  *zap.Logger

	mu         sync.Mutex
	configured map[string]model.EntityKind
}

func New(client paho_mqtt.Client, cfg Config, handler CommandFunc) *service {
	return &service{
		client:     client,
		cfg:        cfg,
		handler:    handler,
		logger:     zap.L(),
		configured: make(map[string]model.EntityKind),
	}
}

func (s *service) Connect() error {
	token := s.client.Connect()
	res := token.WaitTimeout(time.Second * 5)
	if res {
		return nil
	}
	if err := token.Error(); err != nil {
		return err
	}
	return errors.New("unable to connect in time")
}

func (s *service) Disconnect() {
	s.client.Disconnect(250)
}
