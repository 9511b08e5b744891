package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/anicoll/rako-integration/cmd"
)

func main() {
	app := &cli.App{
		Name:   "rako-integration",
		Usage:  "bridges a rako lighting bridge into home assistant",
		Action: cmd.RakoCommand,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "rako-host",
				EnvVars:  []string{"RAKO_HOST"},
				Required: true,
			},
			&cli.IntFlag{
				Name:    "rako-port",
				EnvVars: []string{"RAKO_PORT"},
				Value:   9761,
			},
			&cli.StringFlag{
				Name:    "rako-name",
				EnvVars: []string{"RAKO_NAME"},
				Value:   "Rako Bridge",
			},
			&cli.StringFlag{
				Name:     "rako-mac",
				EnvVars:  []string{"RAKO_MAC"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "mqtt-host",
				EnvVars: []string{"MQTT_HOST"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-pass",
				EnvVars: []string{"MQTT_PASS"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "mqtt-user",
				EnvVars: []string{"MQTT_USER"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:     "database-url",
				EnvVars:  []string{"DATABASE_URL"},
				Value:    "",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "migrations-folder",
				EnvVars:  []string{"MIGRATIONS_FOLDER"},
				Value:    "",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "devices-file",
				EnvVars:  []string{"DEVICES_FILE"},
				Value:    "",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "api-token-hash",
				EnvVars: []string{"API_TOKEN_HASH"},
				Value:   "",
			},
			&cli.StringFlag{
				Name:    "listen-addr",
				EnvVars: []string{"LISTEN_ADDR"},
				Value:   "0.0.0.0:8000",
			},
			&cli.StringFlag{
				Name:    "log-level",
				EnvVars: []string{"LOG_LEVEL"},
				Value:   "INFO",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
