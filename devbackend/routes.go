package devbackend

import (
	"github.com/jrsteele09/homereno-client/internal/middleware"
	"github.com/jrsteele09/homereno-client/users"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteAuthLogin, middleware.Chain(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRegister, middleware.Chain(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, middleware.Chain(s.RefreshAccessTokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, middleware.Chain(s.LogoutHandler(), s.APIMiddleware()...))

	// Protected API routes (require a valid bearer token with the right role)
	s.RegisterRouteHandler("GET "+RouteProjects, middleware.Chain(s.ProjectsHandler(), s.APIMiddleware(s.RequireAuth(users.RoleCustomer))...))
	s.RegisterRouteHandler("GET "+RouteVendorBids, middleware.Chain(s.VendorBidsHandler(), s.APIMiddleware(s.RequireAuth(users.RoleVendor))...))
	s.RegisterRouteHandler("GET "+RouteAdminStatistics, middleware.Chain(s.AdminStatisticsHandler(), s.APIMiddleware(s.RequireAuth(users.RoleAdmin))...))

	// CORS preflight
	s.RegisterRouteHandler("OPTIONS /", middleware.Chain(s.notFoundHandler(), s.APIMiddleware()...))
}
