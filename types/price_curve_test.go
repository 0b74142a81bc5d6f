package types

import (
	"reflect"
	"testing"
)

func TestMergeShiftsTomorrow(t *testing.T) {
	today := HourPriceCurve{0: 40.5, 1: 38.0}
	tomorrow := HourPriceCurve{0: 42.0, 23: 55.5}

	merged := Merge(today, tomorrow)

	expected := HourPriceCurve{0: 40.5, 1: 38.0, 24: 42.0, 47: 55.5}
	if !reflect.DeepEqual(merged, expected) {
		t.Errorf("expected %v, got %v", expected, merged)
	}
	for h, p := range tomorrow {
		if merged[h+HoursPerDay] != p {
			t.Errorf("expected merged[%d] = %f, got %f", h+HoursPerDay, p, merged[h+HoursPerDay])
		}
	}
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	today := HourPriceCurve{0: 1}
	tomorrow := HourPriceCurve{0: 2}

	Merge(today, tomorrow)

	if len(today) != 1 || today[0] != 1 {
		t.Errorf("today was modified: %v", today)
	}
	if len(tomorrow) != 1 || tomorrow[0] != 2 {
		t.Errorf("tomorrow was modified: %v", tomorrow)
	}
}

func TestMergeFullDaysHasNoCollisions(t *testing.T) {
	today := make(HourPriceCurve)
	tomorrow := make(HourPriceCurve)
	for h := 0; h < HoursPerDay; h++ {
		today[h] = float64(h)
		tomorrow[h] = float64(100 + h)
	}

	merged := Merge(today, tomorrow)
	if len(merged) != 48 {
		t.Fatalf("expected 48 entries, got %d", len(merged))
	}
	for h := 0; h < HoursPerDay; h++ {
		if merged[h] != today[h] {
			t.Errorf("expected merged[%d] = %f, got %f", h, today[h], merged[h])
		}
	}
}

func TestCurvePriceAndHours(t *testing.T) {
	c := HourPriceCurve{2: 3.5, 0: 1.5, 24: 9}

	if p, ok := c.Price(2); !ok || p != 3.5 {
		t.Errorf("expected 3.5, got %f (ok=%v)", p, ok)
	}
	if _, ok := c.Price(5); ok {
		t.Errorf("expected hour 5 to be missing")
	}
	if hours := c.Hours(); !reflect.DeepEqual(hours, []int{0, 2, 24}) {
		t.Errorf("expected sorted hours [0 2 24], got %v", hours)
	}
}

func TestCurveCloneIsIndependent(t *testing.T) {
	c := HourPriceCurve{0: 1}
	cl := c.Clone()
	cl[0] = 2
	if c[0] != 1 {
		t.Errorf("expected original to be untouched, got %f", c[0])
	}
	if HourPriceCurve(nil).Clone() != nil {
		t.Errorf("expected nil clone of nil curve")
	}
}
