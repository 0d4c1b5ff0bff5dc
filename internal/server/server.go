package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// Server wraps an http.Server with its logger.
type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewRouter wires every route behind metrics instrumentation.
func NewRouter(h *Handlers, m *Metrics) *mux.Router {
	r := mux.NewRouter()
	route := func(name string, fn http.HandlerFunc) http.Handler {
		return m.WrapHandler(name, fn)
	}

	r.Handle("/health", route("health", h.Health)).Methods(http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Handle("/classify", route("classify", h.Classify)).Methods(http.MethodPost)
	api.Handle("/fleets", route("fleets", h.ListFleets)).Methods(http.MethodGet)
	api.Handle("/fleets/{name}/machines", route("fleet_upload", h.UploadFleet)).Methods(http.MethodPut)
	api.Handle("/fleets/{name}/machines", route("fleet_machines", h.FleetMachines)).Methods(http.MethodGet)
	api.Handle("/fleets/{name}/summary", route("fleet_summary", h.FleetSummary)).Methods(http.MethodGet)

	r.NotFoundHandler = route("not_found", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})
	r.MethodNotAllowedHandler = route("method_not_allowed", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}

// New builds a server for addr. Access logs go to accessLog in Apache combined
// format; panics in handlers become 500 responses.
func New(addr string, accessLog io.Writer, log *slog.Logger, h *Handlers, m *Metrics) *Server {
	var handler http.Handler = NewRouter(h, m)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(handler)
	if accessLog != nil {
		handler = handlers.CombinedLoggingHandler(accessLog, handler)
	}

	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

func (s *Server) Start() error {
	s.Log.Info("http server starting", "addr", s.HTTP.Addr)
	return s.HTTP.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
