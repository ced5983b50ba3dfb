package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"watchsweep/handlers"
)

// NewRouter registers the status routes.
func NewRouter(status *handlers.StatusHandler, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(log))

	r.HandleFunc("/healthz", status.Health).Methods(http.MethodGet, http.MethodHead)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/status", status.Status).Methods(http.MethodGet)

	return r
}

// requestLogger logs each request at debug level.
func requestLogger(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("took", time.Since(start)).Msg("status request")
		})
	}
}

// Server is the optional status listener.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer creates a status listener on addr.
func NewServer(addr string, handler http.Handler, log zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("status endpoint listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("status endpoint stopped")
		}
	}()
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
