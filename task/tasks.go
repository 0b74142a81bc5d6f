package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/angas/otesensor-go/config"
	"github.com/angas/otesensor-go/database"
	"github.com/angas/otesensor-go/sensor"
	"github.com/robfig/cron/v3"
)

const maintenanceRunAt = "30 2 * * *"

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	SensorTask      func()
	MaintenanceTask func()
}

func NewTasks(db *database.Database, s *sensor.PriceSensor, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	cronLogger := newCronLogger(logger)
	return &Tasks{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger), cron.Recover(cronLogger)),
		),
		cnfg:            cnfg,
		SensorTask:      NewSensorTask(logger.With(slog.String("task", "sensor")), s, db),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

// Run schedules the tasks and runs a first sensor update right away, so the
// sensor has a value before the first tick.
func (t *Tasks) Run() error {
	if _, err := t.cron.AddFunc(t.cnfg.Sensor.GetRunAt(), t.SensorTask); err != nil {
		return fmt.Errorf("invalid sensor run_at %q: %w", t.cnfg.Sensor.GetRunAt(), err)
	}
	if _, err := t.cron.AddFunc(maintenanceRunAt, t.MaintenanceTask); err != nil {
		return fmt.Errorf("invalid maintenance schedule: %w", err)
	}

	go t.SensorTask()
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
