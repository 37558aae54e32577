package config

type ProviderConfig interface {
	GetGitHubClientID() string
	GetGitHubClientSecret() string
	GetGoogleClientID() string
	GetGoogleClientSecret() string
}

type Providers struct{}

var _ ProviderConfig = Providers{}

func (Providers) GetGitHubClientID() string {
	return GetEnv("GITHUB_CLIENT_ID", "")
}

func (Providers) GetGitHubClientSecret() string {
	return GetEnv("GITHUB_CLIENT_SECRET", "")
}

func (Providers) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Providers) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}
