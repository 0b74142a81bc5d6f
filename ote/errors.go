package ote

import (
	"errors"
	"fmt"
)

var ErrAxisNotFound = errors.New("axis not found")

// DataFetchError is returned when the price chart of a day could not be
// retrieved or understood. Err holds the original cause.
type DataFetchError struct {
	Date string
	Err  error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("failed to fetch prices for %s: %v", e.Date, e.Err)
}

func (e *DataFetchError) Unwrap() error {
	return e.Err
}

// HourNotFoundError is returned when the merged curve has no price for the
// current hour.
type HourNotFoundError struct {
	Date string
	Hour int
}

func (e *HourNotFoundError) Error() string {
	return fmt.Sprintf("no price for %s hour %02d", e.Date, e.Hour)
}
