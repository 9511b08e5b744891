package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/rako-integration/internal/pkg/bridge"
	"github.com/anicoll/rako-integration/internal/pkg/config"
	"github.com/anicoll/rako-integration/internal/pkg/database"
	"github.com/anicoll/rako-integration/internal/pkg/database/migration"
	"github.com/anicoll/rako-integration/internal/pkg/entity"
	"github.com/anicoll/rako-integration/internal/pkg/model"
	"github.com/anicoll/rako-integration/internal/pkg/mqtt"
	"github.com/anicoll/rako-integration/internal/pkg/publisher"
	"github.com/anicoll/rako-integration/internal/pkg/rako"
	"github.com/anicoll/rako-integration/internal/pkg/server"
)

func RakoCommand(ctx *cli.Context) error {
	cfg := &config.Config{
		RakoCfg: &config.RakoConfig{
			Host: ctx.String("rako-host"),
			Port: ctx.Int("rako-port"),
			Name: ctx.String("rako-name"),
			MAC:  ctx.String("rako-mac"),
		},
		MqttCfg: &config.MqttConfig{
			Host:     ctx.String("mqtt-host"),
			Username: ctx.String("mqtt-user"),
			Password: ctx.String("mqtt-pass"),
		},
		LogLevel:         ctx.String("log-level"),
		DevicesFile:      ctx.String("devices-file"),
		DatabaseURL:      ctx.String("database-url"),
		MigrationsFolder: ctx.String("migrations-folder"),
		APITokenHash:     ctx.String("api-token-hash"),
		ListenAddr:       ctx.String("listen-addr"),
	}

	return run(ctx.Context, cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	errorChan := make(chan error, 1000)
	var err error

	eg, ctx := errgroup.WithContext(ctx)
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	logger := zap.Must(logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)))
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	cfg.Tunables, err = config.LoadTunables()
	if err != nil {
		return err
	}

	if err := migration.Migrate(cfg.DatabaseURL, cfg.MigrationsFolder); err != nil {
		return err
	}
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())
	db := database.NewDatabase(conn)

	if err := publisher.RegisterPublisher("postgres", db); err != nil {
		return err
	}

	hub := server.NewHub()
	defer hub.Close()
	if err := publisher.RegisterPublisher("events", hub); err != nil {
		return err
	}

	df, err := model.LoadDevicesFile(cfg.DevicesFile)
	if err != nil {
		return err
	}

	rakoBridge := rako.NewBridge(rako.BridgeInfo{
		Host: cfg.RakoCfg.Host,
		Port: cfg.RakoCfg.Port,
		Name: cfg.RakoCfg.Name,
		MAC:  cfg.RakoCfg.MAC,
	})
	rakoBridge.SeedCaches(df)

	dir := buildDirectory(df, rakoBridge, cfg)

	mqttSvc := mqtt.New(newMqttClient(cfg.MqttCfg), mqtt.Config{
		DiscoveryPrefix: cfg.Tunables.DiscoveryPrefix,
		TopicPrefix:     cfg.Tunables.TopicPrefix,
		BridgeName:      cfg.RakoCfg.Name,
		BridgeMAC:       cfg.RakoCfg.MAC,
	}, func(cctx context.Context, uniqueID string, cmd model.Command) {
		e, ok := dir.Entity(uniqueID)
		if !ok {
			zap.L().Warn("command for unknown entity", zap.String("unique_id", uniqueID))
			return
		}
		if err := e.Apply(cctx, cmd); err != nil {
			zap.L().Error("command failed", zap.String("unique_id", uniqueID), zap.Error(err))
		}
	})
	if err := mqttSvc.Connect(); err != nil {
		return err
	}
	defer mqttSvc.Disconnect()
	if err := publisher.RegisterPublisher("mqtt", mqttSvc); err != nil {
		return err
	}

	bridgeSvc := bridge.New(rakoConnection{rakoBridge}, errorChan,
		bridge.WithRestartBackoff(cfg.Tunables.ListenBackoff))

	for _, e := range dir.Entities() {
		publisher.RegisterEntity(e.State())
		bridgeSvc.Register(e.(bridge.Subscriber))
		publisher.PublishState(ctx, e.State())
	}
	defer func() {
		for _, e := range dir.Entities() {
			bridgeSvc.Deregister(e.(bridge.Subscriber))
		}
	}()

	eg.Go(func() error {
		return cronDbCleanup(db, errorChan)
	})

	eg.Go(func() error {
		srv := &http.Server{
			Handler:      server.New(dir, db, hub, cfg.APITokenHash).Router(),
			Addr:         cfg.ListenAddr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		// handle any async errors from services
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					logger.Error("cron error", zap.Error(err))
					return err
				}
				logger.Error("listener error", zap.Error(err))
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

// buildDirectory turns the devices file into adapters: one room-addressed
// entity per room plus one per declared channel.
func buildDirectory(df *model.DevicesFile, rakoBridge *rako.Bridge, cfg *config.Config) *directory {
	notify := func(state model.EntityState) {
		publisher.PublishState(context.Background(), state)
	}

	dir := newDirectory()
	for _, room := range df.Rooms {
		dir.add(newEntity(entity.Config{
			Commander: rakoBridge,
			Caches:    rakoBridge,
			Notify:    notify,
			MAC:       cfg.RakoCfg.MAC,
			Room:      room.ID,
			Channel:   0,
			Name:      room.Title,
			Timeout:   cfg.Tunables.CommandTimeout,
		}, room.Kind))

		for _, ch := range room.Channels {
			kind := ch.Kind
			if kind == "" {
				kind = room.Kind
			}
			dir.add(newEntity(entity.Config{
				Commander: rakoBridge,
				Caches:    rakoBridge,
				Notify:    notify,
				MAC:       cfg.RakoCfg.MAC,
				Room:      room.ID,
				Channel:   ch.ID,
				Name:      fmt.Sprintf("%s %s", room.Title, ch.Title),
				Timeout:   cfg.Tunables.CommandTimeout,
			}, kind))
		}
	}
	return dir
}

func newEntity(cfg entity.Config, kind model.EntityKind) server.Entity {
	if kind == model.KindFan {
		return entity.NewFan(cfg)
	}
	return entity.NewLight(cfg)
}

func newMqttClient(cfg *config.MqttConfig) paho_mqtt.Client {
	opts := paho_mqtt.NewClientOptions()
	opts.AddBroker(cfg.Host)
	opts.SetClientID("rako-integration")
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	return paho_mqtt.NewClient(opts)
}

var errCron = errors.New("cron error")

func cronDbCleanup(db *database.Database, errChan chan error) error {
	if err := db.Cleanup(context.Background()); err != nil {
		return err
	}

	// CRON automation
	c := cron.New()
	if _, err := c.AddFunc("0 3 * * *", func() {
		if err := db.Cleanup(context.Background()); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
			errChan <- errCron
			return
		}
		zap.L().Info("cleaned up state history")
	}); err != nil {
		return err
	}

	c.Run()
	return nil
}
