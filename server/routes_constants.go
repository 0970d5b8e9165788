package server

// Route path constants
const (
	RouteAuth         = "/auth"
	RouteAuthCallback = "/auth/callback"
	RouteHealth       = "/healthz"
)
