package server

import "net/http"

func (s *Server) initRoutes() {
	// Discovery routes: public, cacheable, no credentials involved.
	s.RegisterRouteFunc("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfig(), s.APIMiddleware(false)...))
	s.RegisterRouteFunc("GET "+RouteWellKnownJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware(false)...))

	// Cookie-bearing API routes. Non-GET routes also get a synthesized
	// OPTIONS preflight.
	s.registerCorsRoute(http.MethodGet, RouteAuthToken, s.TokenHandler())
	s.registerCorsRoute(http.MethodPost, RouteAuthSignUp, s.SignUpHandler())
	s.registerCorsRoute(http.MethodPost, RouteAuthSignIn, s.SignInHandler())
	s.registerCorsRoute(http.MethodPost, RouteAuthSignOut, s.SignOutHandler())
	s.registerCorsRoute(http.MethodPost, RouteAuthRequestCode, s.RequestCodeHandler())
	s.registerCorsRoute(http.MethodPost, RouteAuthVerifyCode, s.VerifyCodeHandler())

	// OAuth round trip: plain browser navigations, no CORS needed.
	// Literal routes above win over the {provider} wildcard.
	s.RegisterRouteFunc("GET "+RouteAuthProvider, ChainMiddleware(s.OAuthRedirectHandler(), s.BrowserMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthProviderCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.BrowserMiddleware()...))
}

// registerCorsRoute mounts a cookie-bearing route with credentialed CORS
// headers, plus the matching OPTIONS preflight for non-GET methods.
func (s *Server) registerCorsRoute(method, path string, handler http.HandlerFunc) {
	s.RegisterRouteFunc(method+" "+path, ChainMiddleware(handler, s.APIMiddleware(true)...))

	if method != http.MethodGet {
		s.RegisterRouteFunc("OPTIONS "+path, ChainMiddleware(s.preflightHandler(method), s.APIMiddleware(true)...))
	}
}

func (s *Server) preflightHandler(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", method)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
	}
}
