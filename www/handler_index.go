package www

import (
	"log/slog"
	"net/http"
)

// NewIndexHandler renders the dashboard on "/" and leaves every other path
// to the static file handler.
func NewIndexHandler(logger *slog.Logger, s SensorReader, tm *TemplateManager, static http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			static.ServeHTTP(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		if err := tm.ExecuteToWriter("index.html", NewReadingView(s.Snapshot()), w); err != nil {
			logger.Error("handling index request", slog.Any("error", err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
