package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/angas/otesensor-go/config"
	"github.com/angas/otesensor-go/database"
	"github.com/angas/otesensor-go/hass"
	"github.com/angas/otesensor-go/hours"
	"github.com/angas/otesensor-go/logging"
	"github.com/angas/otesensor-go/metrics"
	"github.com/angas/otesensor-go/ote"
	"github.com/angas/otesensor-go/sensor"
	"github.com/angas/otesensor-go/task"
	"github.com/angas/otesensor-go/www"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// A missing .env is fine, the environment is used as is
	_ = godotenv.Load()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := hours.SetMarketTimezone(cnfg.Sensor.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set market timezone: %v", err))
	}
	if err := hours.SetGuiTimezone(cnfg.Gui.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set GUI timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("otesensor is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	client := ote.New(cnfg.Sensor.GetUrl(), cnfg.Sensor.GetTimeout())
	priceSensor := sensor.New(cnfg.Sensor.Name, client)

	promMetrics := metrics.New()
	priceSensor.OnUpdate(promMetrics.Observe)

	if cnfg.Mqtt.Enabled && !isDevMode() {
		publisher := hass.New(cnfg.Mqtt, priceSensor.Name(), cnfg.Sensor.GetObjectId(), Version)
		if err := publisher.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer publisher.Disconnect()
		priceSensor.OnUpdate(publisher.OnSensorUpdate)
	} else {
		logger.Info("mqtt disabled, sensor is only exposed through the web server")
	}

	tasks := task.NewTasks(db, priceSensor, cnfg)

	endpoint := cnfg.Sensor.GetUrl()
	if endpoint == "" {
		endpoint = ote.DefaultURL
	}
	server, err := www.NewServer(cnfg.Api, www.Deps{
		Db:         db,
		Sensor:     priceSensor,
		UpdateTask: tasks.SensorTask,
		Metrics:    promMetrics.Handler(),
		SysInfo: www.SysInfo{
			Version:     Version,
			StartedAt:   time.Now(),
			Endpoint:    endpoint,
			RunAt:       cnfg.Sensor.GetRunAt(),
			MqttEnabled: cnfg.Mqtt.Enabled,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create web server: %v", err))
	}
	priceSensor.OnUpdate(server.OnSensorUpdate)

	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		if err := tasks.Run(); err != nil {
			panic(fmt.Sprintf("failed to schedule tasks: %v", err))
		}
		defer tasks.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	time.Sleep(2 * time.Second)
	os.Exit(1)
}
