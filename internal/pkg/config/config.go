package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	RakoCfg          *RakoConfig
	MqttCfg          *MqttConfig
	LogLevel         string
	DevicesFile      string
	DatabaseURL      string
	MigrationsFolder string
	APITokenHash     string
	ListenAddr       string
	Tunables         Tunables
}

type RakoConfig struct {
	Host string
	Port int
	Name string
	MAC  string
}

type MqttConfig struct {
	Host     string
	Username string
	Password string
}

// Tunables are the knobs that rarely need touching, read straight from
// the environment with sensible defaults.
type Tunables struct {
	CommandTimeout  time.Duration `env:"RAKO_COMMAND_TIMEOUT" envDefault:"3s"`
	ListenBackoff   time.Duration `env:"RAKO_LISTEN_BACKOFF" envDefault:"5s"`
	DiscoveryPrefix string        `env:"HA_DISCOVERY_PREFIX" envDefault:"homeassistant"`
	TopicPrefix     string        `env:"RAKO_TOPIC_PREFIX" envDefault:"rako"`
}

func LoadTunables() (Tunables, error) {
	var t Tunables
	if err := env.Parse(&t); err != nil {
		return Tunables{}, err
	}
	return t, nil
}
