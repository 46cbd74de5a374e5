package server

import (
	"net/http"
	"time"

	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"vendorhub/internal/config"
	"vendorhub/internal/services"
)

// Services are the application services exposed over HTTP
type Services struct {
	Queries *services.QueryService
	Cron    *services.CronService
	Auth    *services.AuthService
	Health  *services.HealthService
}

// Server mounts the JSON API on a goa muxer
type Server struct {
	cfg *config.Config
	svc Services
	mux goahttp.Muxer
	now func() time.Time
}

// New creates the API server and mounts every route
func New(cfg *config.Config, svc Services) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		mux: goahttp.NewMuxer(),
		now: func() time.Time { return time.Now().UTC() },
	}
	s.mount()
	return s
}

func (s *Server) mount() {
	s.mux.Handle("GET", "/health", s.handleHealth)
	s.mux.Handle("POST", "/api/auth/login", s.handleLogin)

	s.mux.Handle("POST", "/api/contact", s.handleContact)
	s.mux.Handle("POST", "/api/inquiries", s.handleInquiry)

	s.mux.Handle("GET", "/api/queries", s.authenticated(s.handleListQueries))
	s.mux.Handle("GET", "/api/queries/{id}", s.authenticated(s.handleGetQuery))
	s.mux.Handle("PATCH", "/api/queries/{id}", s.authenticated(s.handleRespond))
	s.mux.Handle("GET", "/api/queries/{id}/events", s.authenticated(s.handleEvents))

	s.mux.Handle("GET", "/api/cron/escalation-check", s.handleEscalationCheck)
}

// Handler returns the API with request id and request context middleware applied
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = middleware.PopulateRequestContext()(h)
	h = middleware.RequestID()(h)
	return h
}
