package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/otesensor-go/database"
	"github.com/angas/otesensor-go/sensor"
)

// Both days are fetched concurrently, each bounded by the client timeout.
const sensorTaskTimeout = 30 * time.Second

type Updater interface {
	Update(ctx context.Context)
	Snapshot() sensor.State
}

type CycleStore interface {
	SaveUpdateCycle(ctx context.Context, r database.UpdateCycleRow) error
}

func NewSensorTask(logger *slog.Logger, s Updater, store CycleStore) func() {
	return func() {
		logger.Debug("running sensor task...")

		ctx, cancel := context.WithTimeout(context.Background(), sensorTaskTimeout)
		defer cancel()

		start := time.Now()
		s.Update(ctx)
		duration := time.Since(start)

		state := s.Snapshot()
		row := database.UpdateCycleRow{
			StartedAt: start,
			Duration:  duration,
			Result:    state.Result,
		}
		if state.Error != nil {
			row.Error = state.Error.Error()
		}

		if err := store.SaveUpdateCycle(ctx, row); err != nil {
			logger.Error("sensor task error, saving update cycle", slog.Any("error", err))
		}

		logger.Debug("sensor task done",
			slog.String("result", state.Result),
			slog.Duration("duration", duration))
	}
}
