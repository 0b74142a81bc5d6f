package ote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/angas/otesensor-go/hours"
	"github.com/angas/otesensor-go/types"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultURL     = "https://www.ote-cr.cz/cs/kratkodobe-trhy/elektrina/denni-trh/@@chart-data"
	DefaultTimeout = 5 * time.Second

	CostLegend = "Cena (EUR/MWh)"
	HourLegend = "Hodina"
)

// Client reads day-ahead prices from the OTE-CR chart-data endpoint.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("module", "ote"),
	}
}

// FetchDayCurve returns the hourly prices of the given market day keyed by
// hour offset 0-23. Every failure is reported as a *DataFetchError.
func (c *Client) FetchDayCurve(ctx context.Context, date time.Time) (types.HourPriceCurve, error) {
	day := hours.FormatDate(date)
	curve, err := c.fetchDayCurve(ctx, day)
	if err != nil {
		return nil, &DataFetchError{Date: day, Err: err}
	}
	return curve, nil
}

func (c *Client) fetchDayCurve(ctx context.Context, day string) (types.HourPriceCurve, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("date", day)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	curve, skipped, err := decodeCurve(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		c.logger.Warn("skipped prices outside of the delivery day",
			slog.String("date", day),
			slog.Any("hours", skipped))
	}
	c.logger.Debug("day curve fetched", slog.String("date", day), slog.Int("noOfHours", len(curve)))

	return curve, nil
}

// ResolveCurrent fetches today's and tomorrow's curves, merges them into one
// 0-47 curve and reads the price for the hour now falls in.
func (c *Client) ResolveCurrent(ctx context.Context, now time.Time) (types.CurrentReading, error) {
	today := hours.Today(now)
	tomorrow := hours.Tomorrow(now)

	var todayCurve, tomorrowCurve types.HourPriceCurve
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		todayCurve, err = c.FetchDayCurve(gctx, today)
		return err
	})
	g.Go(func() error {
		var err error
		tomorrowCurve, err = c.FetchDayCurve(gctx, tomorrow)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.CurrentReading{}, err
	}

	return Resolve(now, todayCurve, tomorrowCurve)
}

// Resolve merges the two day curves and picks the price for the hour of now.
func Resolve(now time.Time, today, tomorrow types.HourPriceCurve) (types.CurrentReading, error) {
	dh := hours.FromTime(now)
	hour := int(dh.Hour)

	merged := types.Merge(today, tomorrow)
	price, ok := merged.Price(hour)
	if !ok {
		return types.CurrentReading{}, &HourNotFoundError{Date: dh.Date, Hour: hour}
	}

	return types.CurrentReading{
		Value:      price,
		Attributes: merged,
		Hour:       hour,
		ResolvedAt: now,
	}, nil
}

// decodeCurve turns a chart-data document into a day curve. Points with an
// hour outside 1-24 are left out and returned as skipped.
func decodeCurve(r io.Reader) (types.HourPriceCurve, []int, error) {
	var data chartData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	costAxis, err := findAxis(data.Axis, CostLegend)
	if err != nil {
		return nil, nil, err
	}
	hourAxis, err := findAxis(data.Axis, HourLegend)
	if err != nil {
		return nil, nil, err
	}

	curve := make(types.HourPriceCurve)
	var skipped []int
	for _, line := range data.Data.DataLine {
		if line.Title != CostLegend {
			continue
		}
		for i, point := range line.Point {
			hourValue, ok := point[hourAxis]
			if !ok {
				return nil, nil, fmt.Errorf("point %d has no value for hour axis %q", i, hourAxis)
			}
			hour, err := hourValue.Int()
			if err != nil {
				return nil, nil, fmt.Errorf("point %d hour: %w", i, err)
			}

			costValue, ok := point[costAxis]
			if !ok {
				return nil, nil, fmt.Errorf("point %d has no value for cost axis %q", i, costAxis)
			}
			cost, err := costValue.Float64()
			if err != nil {
				return nil, nil, fmt.Errorf("point %d cost: %w", i, err)
			}

			// The endpoint counts hours from 1
			offset := hour - 1
			if offset < 0 || offset >= types.HoursPerDay {
				skipped = append(skipped, hour)
				continue
			}
			if _, exists := curve[offset]; exists {
				return nil, nil, fmt.Errorf("duplicate price for hour %d", hour)
			}
			curve[offset] = cost
		}
	}

	return curve, skipped, nil
}

// findAxis returns the key of the axis with the given legend. When several
// axes share the legend the lowest key wins.
func findAxis(axes map[string]chartAxis, legend string) (string, error) {
	keys := make([]string, 0, len(axes))
	for k := range axes {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if axes[k].Legend == legend {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: no axis with legend %q", ErrAxisNotFound, legend)
}

// IsFetchError reports whether err came from retrieving a day curve.
func IsFetchError(err error) bool {
	var fe *DataFetchError
	return errors.As(err, &fe)
}

// IsHourNotFound reports whether err means the current hour had no price.
func IsHourNotFound(err error) bool {
	var he *HourNotFoundError
	return errors.As(err, &he)
}
