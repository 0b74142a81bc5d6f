package www

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/angas/otesensor-go/database"
)

type SysInfo struct {
	Version       string
	GoVersion     string
	StartedAt     time.Time
	Endpoint      string
	RunAt         string
	MqttEnabled   bool
	DbVersion     int
	NoOfWsClients int
	UpdateCycles  []database.UpdateCycleRow
}

type SysInfoReader interface {
	Version(ctx context.Context) (int, error)
	GetUpdateCycles(ctx context.Context, limit int) ([]database.UpdateCycleRow, error)
}

func NewSysInfoHandler(logger *slog.Logger, tm *TemplateManager, db SysInfoReader, hub *Hub, base SysInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		info := base
		info.GoVersion = runtime.Version()
		info.NoOfWsClients = hub.NoOfClients()

		var err error
		if info.DbVersion, err = db.Version(r.Context()); err != nil {
			logger.Warn("reading database version", slog.Any("error", err))
		}
		if info.UpdateCycles, err = db.GetUpdateCycles(r.Context(), intOrDefault(r.URL, "cycles", 24)); err != nil {
			logger.Error("handling sys info request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("sys_info.html", info, w); err != nil {
			logger.Error("handling sys info request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
