// Command ote_curve prints the day-ahead prices for one market day, or the
// current reading with -now.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/angas/otesensor-go/hours"
	"github.com/angas/otesensor-go/ote"
	"github.com/lmittmann/tint"
)

func main() {
	date := flag.String("date", "", "market day as YYYY-MM-DD, default: today")
	now := flag.Bool("now", false, "resolve the current price from today and tomorrow")
	endpoint := flag.String("url", ote.DefaultURL, "chart-data endpoint")
	timeout := flag.Duration("timeout", ote.DefaultTimeout, "request timeout per day")
	flag.Parse()

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339Nano,
		}),
	))

	client := ote.New(*endpoint, *timeout)
	ctx := context.Background()

	if *now {
		reading, err := client.ResolveCurrent(ctx, time.Now())
		if err != nil {
			slog.Error("failed to resolve current price", slog.Any("error", err))
			os.Exit(1)
		}
		fmt.Printf("hour %02d: %.2f EUR/MWh\n", reading.Hour, reading.Value)
		for _, h := range reading.Attributes.Hours() {
			price, _ := reading.Attributes.Price(h)
			fmt.Printf("%2d  %8.2f\n", h, price)
		}
		return
	}

	day := hours.Today(time.Now())
	if *date != "" {
		t, err := time.ParseInLocation(hours.DateLayout, *date, hours.InMarket(time.Now()).Location())
		if err != nil {
			slog.Error("invalid date", slog.String("date", *date), slog.Any("error", err))
			os.Exit(2)
		}
		day = t
	}

	curve, err := client.FetchDayCurve(ctx, day)
	if err != nil {
		slog.Error("failed to fetch day curve", slog.Any("error", err))
		os.Exit(1)
	}
	for _, h := range curve.Hours() {
		price, _ := curve.Price(h)
		fmt.Printf("%02d:00  %8.2f\n", h, price)
	}
}
