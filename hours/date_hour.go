package hours

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const DateLayout = "2006-01-02"

var (
	marketLoc   *time.Location
	guiLocation *time.Location = time.UTC
)

func init() {
	var err error
	marketLoc, err = time.LoadLocation("Europe/Prague")
	if err != nil {
		panic(fmt.Sprintf("failed to load Prague location: %v", err))
	}
}

// SetMarketTimezone sets the zone the day-ahead market publishes its days in.
func SetMarketTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %v", timezone, err)
	}
	marketLoc = loc
	return nil
}

func SetGuiTimezone(timezone string) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone %s: %v", timezone, err)
	}
	guiLocation = loc
	return nil
}

// DateHour is a delivery hour in market time.
type DateHour struct {
	Date string
	Hour uint8
}

func (dh DateHour) String() string {
	return fmt.Sprintf("%s %02d", dh.Date, dh.Hour)
}

func FromTime(t time.Time) DateHour {
	if t.IsZero() {
		return DateHour{}
	}
	t = t.In(marketLoc)
	return DateHour{
		Date: t.Format(DateLayout),
		Hour: uint8(t.Hour()),
	}
}

func InMarket(t time.Time) time.Time {
	return t.In(marketLoc)
}

// Today returns midnight of the market day t falls in.
func Today(t time.Time) time.Time {
	t = t.In(marketLoc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, marketLoc)
}

// Tomorrow returns midnight of the market day after the one t falls in.
func Tomorrow(t time.Time) time.Time {
	return Today(t).AddDate(0, 0, 1)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatTimeInGuiTimezone(t time.Time) string {
	return t.In(guiLocation).Format("2006-01-02 15:04:05")
}
