package server

// Route path constants
// All gateway routes are defined here to ensure consistency and prevent typos
const (
	// Token + session routes
	RouteAuthToken   = "/auth/token"
	RouteAuthSignUp  = "/auth/signUp"
	RouteAuthSignIn  = "/auth/signIn"
	RouteAuthSignOut = "/auth/signOut"

	// Email-code routes
	RouteAuthRequestCode = "/auth/requestCode"
	RouteAuthVerifyCode  = "/auth/verifyCode"

	// OAuth provider routes ({provider} is the provider name)
	RouteAuthProvider         = "/auth/{provider}"
	RouteAuthProviderCallback = "/auth/{provider}/callback"

	// Discovery routes
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteWellKnownJWKS         = "/.well-known/jwks.json"
)

// Cookie names
const (
	// SessionCookieName carries the session id for every credentialed
	// route.
	SessionCookieName = "__session"

	// oauthStateCookieSuffix is appended to the provider name to form the
	// CSRF state cookie, e.g. "githubOAuthState".
	oauthStateCookieSuffix = "OAuthState"
)
