package server

// Route path constants
const (
	RouteSignup   = "/auth/signup"
	RouteLogin    = "/auth/login"
	RouteLogout   = "/auth/logout"
	RouteValidate = "/auth/validate"

	RouteHealth = "/health"
)
