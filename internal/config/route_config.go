package config

// RouteConfig names the front-end routes the guard sends users to.
type RouteConfig interface {
	GetLoginRoute() string
	GetUnauthorizedRoute() string
}

type Routes struct{}

var _ RouteConfig = Routes{}

func (Routes) GetLoginRoute() string {
	return "/login"
}

func (Routes) GetUnauthorizedRoute() string {
	return "/unauthorized"
}
