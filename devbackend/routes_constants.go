package devbackend

import (
	"github.com/jrsteele09/homereno-client/apiclient"
	"github.com/jrsteele09/homereno-client/internal/config"
	"github.com/jrsteele09/homereno-client/marketplace"
)

// Route path constants
const (
	// Auth Routes
	RouteAuthLogin    = apiclient.PathLogin
	RouteAuthRegister = apiclient.PathRegister
	RouteAuthRefresh  = config.DefaultRefreshPath
	RouteAuthLogout   = apiclient.PathLogout

	// API Routes
	RouteProjects        = marketplace.PathProjects
	RouteVendorBids      = marketplace.PathVendorBids
	RouteAdminStatistics = marketplace.PathAdminStatistics
)

// RefreshCookieName is the HttpOnly cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"
