package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/angas/otesensor-go/ote"
	"github.com/angas/otesensor-go/types"
	"github.com/angas/otesensor-go/types/maybe"
)

const (
	DefaultName             = "Current OTE Energy Cost"
	NativeUnitOfMeasurement = "EUR/MWh"
	DeviceClass             = "monetary"
)

// Outcome of an update cycle.
const (
	ResultOK           = "ok"
	ResultFetchError   = "fetch_error"
	ResultHourNotFound = "hour_not_found"
	ResultError        = "error"
)

type OnUpdate func(state State)

// State is a consistent view of every sensor property at one point in time.
type State struct {
	Name        string
	Value       maybe.Maybe[float64]
	Unit        string
	DeviceClass string
	Available   bool
	Attributes  types.HourPriceCurve
	Hour        int
	ResolvedAt  time.Time // When the shown value was resolved
	UpdatedAt   time.Time // When the last cycle ran, successful or not
	Result      string
	Error       error
}

// PriceSensor holds the last good reading and availability of the current
// OTE price. Update is the only way to change it.
type PriceSensor struct {
	logger   *slog.Logger
	name     string
	resolver types.CurveResolver
	now      func() time.Time

	cycle     sync.Mutex // one update cycle at a time
	mu        sync.RWMutex
	reading   *types.CurrentReading
	available bool
	updatedAt time.Time
	result    string
	lastErr   error

	listeners []OnUpdate
}

func New(name string, resolver types.CurveResolver) *PriceSensor {
	if name == "" {
		name = DefaultName
	}
	return &PriceSensor{
		logger:   slog.Default().With("module", "sensor"),
		name:     name,
		resolver: resolver,
		now:      time.Now,
	}
}

// SetClock replaces the time source, used by tests.
func (s *PriceSensor) SetClock(now func() time.Time) {
	s.now = now
}

// OnUpdate registers fn to be called after every update cycle.
func (s *PriceSensor) OnUpdate(fn OnUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update runs one update cycle. Failures are logged and flip the sensor to
// unavailable while the previous reading is kept.
func (s *PriceSensor) Update(ctx context.Context) {
	s.cycle.Lock()
	defer s.cycle.Unlock()

	now := s.now()
	reading, err := s.resolve(ctx, now)

	s.mu.Lock()
	s.updatedAt = now
	s.lastErr = err
	s.result = resultOf(err)
	if err != nil {
		s.available = false
	} else {
		reading.Attributes = reading.Attributes.Clone()
		s.reading = &reading
		s.available = true
	}
	listeners := append([]OnUpdate(nil), s.listeners...)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("error occurred while retrieving data from ote-cr.cz",
			slog.String("result", resultOf(err)),
			slog.Any("error", err))
	} else {
		s.logger.Info("sensor updated",
			slog.Int("hour", reading.Hour),
			slog.Float64("price", reading.Value),
			slog.Int("noOfHours", len(reading.Attributes)))
	}

	state := s.Snapshot()
	for _, fn := range listeners {
		fn(state)
	}
}

func (s *PriceSensor) resolve(ctx context.Context, now time.Time) (reading types.CurrentReading, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolver panicked: %v", r)
		}
	}()
	return s.resolver.ResolveCurrent(ctx, now)
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case ote.IsFetchError(err):
		return ResultFetchError
	case ote.IsHourNotFound(err):
		return ResultHourNotFound
	default:
		return ResultError
	}
}

func (s *PriceSensor) Name() string {
	return s.name
}

func (s *PriceSensor) NativeValue() maybe.Maybe[float64] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reading == nil {
		return maybe.None[float64]()
	}
	return maybe.Some(s.reading.Value)
}

func (s *PriceSensor) NativeUnitOfMeasurement() string {
	return NativeUnitOfMeasurement
}

func (s *PriceSensor) DeviceClass() string {
	return DeviceClass
}

func (s *PriceSensor) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// ExtraStateAttributes returns a copy of the curve behind the current value.
func (s *PriceSensor) ExtraStateAttributes() types.HourPriceCurve {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reading == nil {
		return nil
	}
	return s.reading.Attributes.Clone()
}

func (s *PriceSensor) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		Name:        s.name,
		Value:       maybe.None[float64](),
		Unit:        NativeUnitOfMeasurement,
		DeviceClass: DeviceClass,
		Available:   s.available,
		UpdatedAt:   s.updatedAt,
		Result:      s.result,
		Error:       s.lastErr,
	}
	if s.reading != nil {
		state.Value = maybe.Some(s.reading.Value)
		state.Attributes = s.reading.Attributes.Clone()
		state.Hour = s.reading.Hour
		state.ResolvedAt = s.reading.ResolvedAt
	}
	return state
}
