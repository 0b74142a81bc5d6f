package chartjs

import (
	"fmt"
	"math"
)

// NoOfHours covers today and tomorrow.
const NoOfHours = 48

const (
	ColorYellow = "#ffc107d4"
	ColorRed    = "#f44336d4"
	ColorGrey   = "#9e9e9e80"
)

// NewChart returns a line chart with one dataset per hour of today and
// tomorrow. Labels are the market-local clock hour.
func NewChart(title string) Chart {
	labels := make([]string, NoOfHours)
	for i := 0; i < NoOfHours; i++ {
		labels[i] = fmt.Sprintf("%02d:00", i%24)
	}

	chart := Chart{
		Type: "line",
		Data: ChartData{
			Labels: labels,
			Datasets: []ChartDataset{
				{
					Label:       "EUR/MWh",
					Data:        make([]*float64, NoOfHours),
					BorderWidth: 1,
					Tension:     0,
					Stepped:     true,
					Fill:        true,
					BorderColor: ColorYellow,
					YAxisID:     "YAxis1",
				},
			},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: false},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				"YAxis1": {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: "", Color: ColorYellow}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// Highlight colors a single point, used for the current hour.
func (c *Chart) Highlight(dataset, index int, color string) {
	ds := &c.Data.Datasets[dataset]
	if ds.PointBackgroundColor == nil {
		ds.PointBackgroundColor = make([]string, len(ds.Data))
		for i := range ds.PointBackgroundColor {
			ds.PointBackgroundColor[i] = ds.BorderColor
		}
	}
	ds.PointBackgroundColor[index] = color
	if ds.PointRadius == nil {
		ds.PointRadius = make([]int, len(ds.Data))
		for i := range ds.PointRadius {
			ds.PointRadius[i] = 2
		}
	}
	ds.PointRadius[index] = 6
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int) *float64 {
	p := math.Pow(10, float64(precision))
	result := math.Round(num*p) / p
	return &result
}
