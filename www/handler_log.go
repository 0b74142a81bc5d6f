package www

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/angas/otesensor-go/database"
)

type LogReader interface {
	GetLogEntries(ctx context.Context, minLvl slog.Level, page, pageSize int) ([]database.LogEntryRow, error)
}

func NewLogHandler(logger *slog.Logger, db LogReader, tm *TemplateManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html")

		page := intOrDefault(r.URL, "page", 0)
		if page < 1 {
			if err := tm.ExecuteToWriter("log.html", nil, w); err != nil {
				logger.Error("handling log request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		pageSize := intOrDefault(r.URL, "pageSize", 25)
		if pageSize < 1 {
			pageSize = 25
		}
		minLevel := slog.LevelDebug
		if lvl := r.URL.Query().Get("level"); lvl != "" {
			if err := minLevel.UnmarshalText([]byte(lvl)); err != nil {
				http.Error(w, "Invalid level", http.StatusBadRequest)
				return
			}
		}

		e, err := db.GetLogEntries(r.Context(), minLevel, page, pageSize)
		if err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := struct {
			Page     int
			PageSize int
			Level    string
			Entries  []database.LogEntryRow
		}{
			Page:     page + 1,
			PageSize: pageSize,
			Level:    minLevel.String(),
			Entries:  e,
		}

		if err := tm.ExecuteToWriter("log_entries.html", data, w); err != nil {
			logger.Error("handling log request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
