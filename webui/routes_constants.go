package webui

// Route path constants
const (
	RouteHome         = "/"
	RouteLogin        = "/login"
	RouteLogout       = "/logout"
	RouteUnauthorized = "/unauthorized"
	RouteProfile      = "/profile"

	RouteCustomerProjects = "/customer/projects"
	RouteVendorBids       = "/vendor/bids"
	RouteAdminStatistics  = "/admin/statistics"
)
