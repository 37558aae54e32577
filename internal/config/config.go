package config

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	ProviderConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetAfterLoginURL() string
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpPassword() string
	GetSmtpAccount() string
}

type CorsConfig interface {
	GetAllowedOrigin() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Providers
}

func New() Config {
	return mainConfig{}
}
