package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/mediasub/autosub/internal/jobs"
)

type Server struct {
	dispatcher *jobs.Dispatcher
	store      *jobs.Store

	mux     *http.ServeMux
	handler http.Handler
	server  *http.Server
}

type Option func(*Server)

func NewServer(dispatcher *jobs.Dispatcher, store *jobs.Store, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		store:      store,
		mux:        http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	s.handler = c.Handler(s.mux)
	return s
}

// Handler returns the API handler wrapped with the CORS policy.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	s.mux.HandleFunc("/api/v1/jobs/", s.handleJob)
}
