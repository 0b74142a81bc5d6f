package www

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/angas/otesensor-go/config"
	"github.com/angas/otesensor-go/database"
	"github.com/angas/otesensor-go/sensor"
)

type Server struct {
	logger *slog.Logger
	config config.AppConfigApi
	mux    *http.ServeMux
	hub    *Hub
	tm     *TemplateManager
}

// Deps are the parts of the application the web server reads from.
type Deps struct {
	Db         *database.Database
	Sensor     SensorReader
	UpdateTask func()
	Metrics    http.Handler
	SysInfo    SysInfo
}

//go:embed static
var embeddedStaticDir embed.FS

func NewServer(config config.AppConfigApi, deps Deps) (*Server, error) {
	logger := slog.Default().With("module", "www")
	tm, err := NewTemplateManager(logger, config.WwwDir)
	if err != nil {
		return nil, fmt.Errorf("template manager initialization error: %w", err)
	}

	s := &Server{
		logger: logger,
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewHub(logger),
		tm:     tm,
	}

	logReqMW := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.String("remoteAddr", r.RemoteAddr))
			next.ServeHTTP(w, r)
		})
	}

	s.mux.Handle("/", logReqMW(NewIndexHandler(
		logger.With(slog.String("handler", "index")),
		deps.Sensor,
		s.tm,
		staticFilesHandler(config.WwwDir))))

	s.mux.Handle("/reading", logReqMW(NewReadingHandler(
		logger.With(slog.String("handler", "reading")),
		deps.Sensor,
		deps.UpdateTask)))

	s.mux.Handle("/chart", logReqMW(NewChartHandler(
		logger.With(slog.String("handler", "chart")),
		deps.Sensor)))

	s.mux.Handle("/log", logReqMW(NewLogHandler(
		logger.With(slog.String("handler", "log")),
		deps.Db,
		s.tm)))

	s.mux.Handle("/sys_info", logReqMW(NewSysInfoHandler(
		logger.With(slog.String("handler", "sys_info")),
		s.tm,
		deps.Db,
		s.hub,
		deps.SysInfo)))

	if deps.Metrics != nil {
		s.mux.Handle("/metrics", deps.Metrics)
	}

	s.mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		name := r.Header.Get("User-Agent")
		client, err := NewClient(s.hub, w, r, name)
		if err != nil {
			s.logger.Error("new websocket client failed", slog.Any("error", err))
			return
		}
		s.hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// OnSensorUpdate is registered as a sensor listener and pushes the rendered
// reading to every open dashboard.
func (s *Server) OnSensorUpdate(state sensor.State) {
	buf, err := s.tm.Execute("reading.html", NewReadingView(state))
	if err != nil {
		s.logger.Error("template execution failed", slog.Any("error", err))
		return
	}
	s.hub.Publish(buf.Bytes())
}

func (s *Server) Run(ctx context.Context) {
	s.logger.Info("starting server...", "port", s.config.Port)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.hub.Run(ctx)

	srvErrors := make(chan error, 1)
	go func() {
		srvErrors <- srv.ListenAndServe()
	}()

	defer func() {
		if err := s.tm.Close(); err != nil {
			s.logger.Warn("closing template watcher failed", slog.Any("error", err))
		}
	}()

	select {
	case err := <-srvErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", slog.Any("error", err))
		}

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown failed", slog.Any("error", err))
		}
	}
}

func staticFilesHandler(extDir *string) http.Handler {
	if extDir != nil && *extDir != "" {
		staticDir := path.Join(*extDir, "static")
		if _, err := os.Stat(staticDir); err == nil {
			return http.FileServer(http.Dir(staticDir))
		}
	}

	fsys, err := fs.Sub(embeddedStaticDir, "static")
	if err != nil {
		log.Panic(err)
	}
	return http.FileServer(http.FS(fsys))
}
