package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gatekit/gatekit/auth"
	"github.com/gatekit/gatekit/internal/config"
	"github.com/gatekit/gatekit/provider"
	"github.com/gatekit/gatekit/sessions"
	"github.com/gatekit/gatekit/token"
)

// Server is the HTTP gateway: route dispatch, CORS policy, cookie
// issuance/parsing, the OAuth redirect round trip and flow-error-to-status
// mapping. All durable state lives behind the stores; the server itself
// holds no per-request mutable state.
type Server struct {
	env       string // Environment (e.g., "DEV", "production")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	sessions  *sessions.Store
	issuer    *token.Issuer
	providers map[string]provider.Provider
	anonymous bool // silent re-issuance on /auth/token instead of hard 401
}

func New(cfg config.Config, authService *auth.Service, sessionStore *sessions.Store, issuer *token.Issuer, providers ...provider.Provider) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}
	if sessionStore == nil {
		return nil, fmt.Errorf("[Server New] session store is required")
	}
	if issuer == nil {
		return nil, fmt.Errorf("[Server New] token issuer is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		auth:      authService,
		sessions:  sessionStore,
		issuer:    issuer,
		providers: make(map[string]provider.Provider),
		anonymous: cfg.GetAllowAnonymousSessions(),
	}
	s.env = cfg.GetEnv()

	for _, p := range providers {
		s.providers[p.Name()] = p
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Debug().Msgf("[%-19s] %s", displayMethod, path)
}
