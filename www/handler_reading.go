package www

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/angas/otesensor-go/sensor"
	"github.com/angas/otesensor-go/types"
	"github.com/angas/otesensor-go/types/maybe"
)

type SensorReader interface {
	Snapshot() sensor.State
}

// ReadingView is the sensor as Home Assistant would show it.
type ReadingView struct {
	Name        string               `json:"name"`
	State       maybe.Maybe[float64] `json:"state"`
	Unit        string               `json:"unit_of_measurement"`
	DeviceClass string               `json:"device_class"`
	Available   bool                 `json:"available"`
	Hour        int                  `json:"hour"`
	Attributes  types.HourPriceCurve `json:"attributes"`
	ResolvedAt  *time.Time           `json:"resolved_at,omitempty"`
	UpdatedAt   *time.Time           `json:"updated_at,omitempty"`
	Result      string               `json:"result,omitempty"`
	Error       string               `json:"error,omitempty"`
}

func NewReadingView(state sensor.State) ReadingView {
	v := ReadingView{
		Name:        state.Name,
		State:       state.Value,
		Unit:        state.Unit,
		DeviceClass: state.DeviceClass,
		Available:   state.Available,
		Hour:        state.Hour,
		Attributes:  state.Attributes,
		Result:      state.Result,
	}
	if v.Attributes == nil {
		v.Attributes = types.HourPriceCurve{}
	}
	if !state.ResolvedAt.IsZero() {
		v.ResolvedAt = &state.ResolvedAt
	}
	if !state.UpdatedAt.IsZero() {
		v.UpdatedAt = &state.UpdatedAt
	}
	if state.Error != nil {
		v.Error = state.Error.Error()
	}
	return v
}

// NewReadingHandler serves the current reading as JSON on GET. POST starts
// an update cycle in the background and answers 202.
func NewReadingHandler(logger *slog.Logger, s SensorReader, updateTask func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(logger, w, NewReadingView(s.Snapshot()))

		case http.MethodPost:
			if updateTask == nil {
				http.Error(w, "Updates are disabled", http.StatusServiceUnavailable)
				return
			}
			logger.Info("update requested", slog.String("remoteAddr", r.RemoteAddr))
			go updateTask()
			w.WriteHeader(http.StatusAccepted)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
