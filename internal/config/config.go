package config

type Config interface {
	EnvConfig
	ClientConfig
	RouteConfig
	BackendConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Client
	Routes
	Backend
	Cors
}

func New() Config {
	return mainConfig{}
}
