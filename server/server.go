package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/sessions"
	"github.com/jrsteele09/go-session-auth/users"
)

// SessionService is the session lifecycle the HTTP adaptor drives.
type SessionService interface {
	SignUp(ctx context.Context, email, password string) (*users.Profile, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, token, userID string) error
	Validate(ctx context.Context, token, userID string) (sessions.Status, error)
}

var _ SessionService = (*auth.SessionManager)(nil)

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	router   *mux.Router
	routes   []string
	config   config.Config
	sessions SessionService
}

func New(config config.Config, sessions SessionService) *Server {
	s := &Server{
		env:      config.GetEnv(),
		router:   mux.NewRouter(),
		config:   config,
		sessions: sessions,
	}
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(path string, handler http.HandlerFunc, methods ...string) {
	for _, m := range methods {
		s.routes = append(s.routes, m+" "+path)
	}
	s.router.HandleFunc(path, handler).Methods(methods...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		var method, path string
		if _, err := fmt.Sscanf(route, "%s %s", &method, &path); err != nil {
			continue
		}
		if method == http.MethodOptions {
			continue
		}
		fmt.Println(colouredRoute(method, path))
	}
}

func colouredRoute(method, path string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	return fmt.Sprintf("[%s] %s", color+paddedMethod+ResetColor, path)
}
