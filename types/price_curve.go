package types

import (
	"context"
	"maps"
	"slices"
	"time"
)

// Number of hours a single delivery day is shifted by when merged into a
// two-day curve.
const HoursPerDay = 24

// HourPriceCurve maps an hour offset to a price in EUR/MWh. A single day
// uses offsets 0-23, a merged today+tomorrow curve uses 0-47.
type HourPriceCurve map[int]float64

// Price returns the price for the hour offset, ok is false when the hour is missing.
func (c HourPriceCurve) Price(hour int) (float64, bool) {
	p, ok := c[hour]
	return p, ok
}

// Hours returns the hour offsets in ascending order.
func (c HourPriceCurve) Hours() []int {
	return slices.Sorted(maps.Keys(c))
}

func (c HourPriceCurve) Clone() HourPriceCurve {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Merge returns a new curve holding today's prices as is and tomorrow's
// prices shifted by 24 hours. Neither input is modified.
func Merge(today, tomorrow HourPriceCurve) HourPriceCurve {
	merged := make(HourPriceCurve, len(today)+len(tomorrow))
	for h, p := range today {
		merged[h] = p
	}
	for h, p := range tomorrow {
		merged[h+HoursPerDay] = p
	}
	return merged
}

// CurrentReading is the outcome of one successful update cycle.
type CurrentReading struct {
	Value      float64        // Price for the current hour in EUR/MWh
	Attributes HourPriceCurve // The merged 0-47 curve the value was read from
	Hour       int            // Hour of day the value belongs to
	ResolvedAt time.Time
}

type CurveResolver interface {
	ResolveCurrent(ctx context.Context, now time.Time) (CurrentReading, error)
}
