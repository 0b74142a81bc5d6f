package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angas/otesensor-go/sensor"
)

const namespace = "ote"

// Metrics mirrors the sensor state as prometheus collectors on a registry
// of its own.
type Metrics struct {
	registry  *prometheus.Registry
	price     prometheus.Gauge
	curve     *prometheus.GaugeVec
	available prometheus.Gauge
	updates   *prometheus.CounterVec
	lastOk    prometheus.Gauge

	mu sync.Mutex
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_eur_mwh",
			Help:      "Day-ahead price for the current hour in EUR/MWh",
		}),
		curve: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_curve_eur_mwh",
			Help:      "Day-ahead price by hour offset from today's midnight, 24-47 is tomorrow",
		}, []string{"offset"}),
		available: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_available",
			Help:      "1 if the last update cycle succeeded",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_updates_total",
			Help:      "Update cycles by result",
		}, []string{"result"}),
		lastOk: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_last_success_timestamp_seconds",
			Help:      "Unix time the shown value was resolved",
		}),
	}

	m.registry.MustRegister(
		m.price,
		m.curve,
		m.available,
		m.updates,
		m.lastOk,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Observe is registered as a sensor listener.
func (m *Metrics) Observe(state sensor.State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state.Result != "" {
		m.updates.WithLabelValues(state.Result).Inc()
	}

	if state.Available {
		m.available.Set(1)
	} else {
		m.available.Set(0)
	}

	// Stale values stay exported, sensor_available tells them apart
	if !state.Value.IsValid() {
		return
	}
	m.price.Set(state.Value.Value())
	m.lastOk.Set(float64(state.ResolvedAt.Unix()))

	m.curve.Reset()
	for _, h := range state.Attributes.Hours() {
		price, _ := state.Attributes.Price(h)
		m.curve.WithLabelValues(strconv.Itoa(h)).Set(price)
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
