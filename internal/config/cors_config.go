package config

type Cors struct{}

var _ CorsConfig = Cors{}

// GetAllowedOrigin returns the single origin allowed to make credentialed
// cross-origin requests to the gateway.
func (Cors) GetAllowedOrigin() string {
	return GetEnv("ALLOWED_ORIGIN", "http://localhost:3000")
}
