package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc(RouteHealth, ChainMiddleware(s.HealthHandler(), s.StdMiddleware()...), http.MethodGet)

	s.RegisterRouteFunc(RouteSignup, ChainMiddleware(s.SignUpHandler(), s.APIMiddleware()...), http.MethodPost, http.MethodOptions)
	s.RegisterRouteFunc(RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...), http.MethodPost, http.MethodOptions)
	s.RegisterRouteFunc(RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...), http.MethodPost, http.MethodOptions)
	s.RegisterRouteFunc(RouteValidate, ChainMiddleware(s.ValidateHandler(), s.APIMiddleware()...), http.MethodPost, http.MethodOptions)
}
