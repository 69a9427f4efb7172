// Package preview serves a live browser view of the dashboard charts.
package preview

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"shipdash/internal/config"
	"shipdash/internal/dashboard"
	"shipdash/internal/logging"
	"shipdash/internal/visuals"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const pageTitle = "Shipment Dashboard"

// Server is the preview HTTP server.
type Server struct {
	cfg     config.PreviewConfig
	session *dashboard.Session
	board   *visuals.EChartsBoard
	hub     *Hub
	router  *chi.Mux
}

// New creates the preview server and subscribes it to chart changes on board.
func New(cfg config.PreviewConfig, session *dashboard.Session, board *visuals.EChartsBoard) *Server {
	s := &Server{
		cfg:     cfg,
		session: session,
		board:   board,
		hub:     NewHub(),
		router:  chi.NewRouter(),
	}
	board.OnChange(func(e visuals.Event) { s.hub.Broadcast(e) })
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/ws", s.hub.ServeWS)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Compress(5))
		r.Get("/", s.handleIndex)
		r.Get("/charts", s.handleCharts)
		r.Get("/static/app.js", s.handleScript)
		r.Post("/view/{view}", s.handleSwitchView)
	})
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("preview listen on %s: %w", s.cfg.Addr, err)
	}
	url := "http://" + ln.Addr().String()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("url", url).Msg("Preview server listening")
	if s.cfg.Open {
		if err := browser.OpenURL(url); err != nil {
			log.Warn().Err(err).Msg("Failed to open browser")
		}
	}

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 1.5rem; }
nav button { margin-right: .5rem; }
nav button.active { font-weight: bold; }
table { border-collapse: collapse; }
td, th { padding: .25rem .75rem; border-bottom: 1px solid #ddd; }
iframe { width: 100%; height: 80vh; border: 0; }
</style>
</head>
<body>
<h1>{{.Title}} <small id="status">connecting</small></h1>
<section id="kpis">{{.Summary}}</section>
<nav>{{range .Views}}<button data-view="{{.}}"{{if eq . $.Active}} class="active"{{end}}>{{.}}</button>{{end}}</nav>
<iframe id="charts" src="/charts?view={{.Active}}"></iframe>
<script src="/static/app.js"></script>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Title   string
		Summary template.HTML
		Views   []dashboard.View
		Active  dashboard.View
	}{
		Title:   pageTitle,
		Summary: template.HTML(summaryHTML(s.session.KPIs(), s.session.ResultText())),
		Views:   dashboard.Views,
		Active:  s.session.ActiveView(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("Failed to render preview index")
	}
}

// handleCharts renders the charts of ?view=, or every live chart when no view is given.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	var targets []string
	if v := r.URL.Query().Get("view"); v != "" {
		view, err := dashboard.ParseView(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		targets = dashboard.TargetsFor(view)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.board.Page(w, pageTitle, targets...); err != nil {
		log.Error().Err(err).Msg("Failed to render preview charts")
	}
}

func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	js, err := script()
	if err != nil {
		log.Error().Err(err).Msg("Preview script unavailable")
		http.Error(w, "script unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write(js)
}

func (s *Server) handleSwitchView(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.session.SwitchView(view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requestLogger logs through zerolog; stdout belongs to the MCP transport.
func requestLogger(next http.Handler) http.Handler {
	logger := logging.Component("preview")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("Preview request")
	})
}
