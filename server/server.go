package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-google-login/internal/config"
	"github.com/jrsteele09/go-google-login/loginflow"
	"github.com/rs/zerolog/log"
)

// LoginFlow is the part of loginflow.Flow the HTTP layer drives.
type LoginFlow interface {
	Begin(ctx context.Context) (loginflow.AuthRedirect, error)
	Callback(ctx context.Context, params loginflow.CallbackParams) (*loginflow.UserProfile, error)
}

type Server struct {
	mux    *http.ServeMux
	routes []string
	config *config.Config
	flow   LoginFlow
}

func New(cfg *config.Config, flow LoginFlow) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		flow:   flow,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if !s.config.IsDev() {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Info().Str("method", method).Str("path", path).Msg("Route registered")
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
