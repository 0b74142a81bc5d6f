package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/otesensor-go/sensor"
	"github.com/angas/otesensor-go/www/chartjs"
)

func NewChartHandler(logger *slog.Logger, s SensorReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		writeJSON(logger, w, priceChart(s.Snapshot()))
	}
}

// priceChart plots today and tomorrow. Hours without a price are left as
// gaps and the current hour is highlighted.
func priceChart(state sensor.State) chartjs.Chart {
	chart := chartjs.NewChart("")
	for i := 0; i < chartjs.NoOfHours; i++ {
		if price, ok := state.Attributes.Price(i); ok {
			chart.Data.Datasets[0].Data[i] = chartjs.FixedFloat64(price, 2)
		}
	}
	chart.Options.Scales["YAxis1"] = chart.Options.Scales["YAxis1"].
		WithTitle("Energy Price (" + sensor.NativeUnitOfMeasurement + ")")

	if state.Value.IsValid() && state.Hour >= 0 && state.Hour < chartjs.NoOfHours {
		color := chartjs.ColorRed
		if !state.Available {
			color = chartjs.ColorGrey
		}
		chart.Highlight(0, state.Hour, color)
	}

	return chart
}
