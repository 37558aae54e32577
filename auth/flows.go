package auth

import (
	"context"

	"github.com/pkg/errors"
)

// Kind tags a credential flow variant.
type Kind string

const (
	KindPasswordSignUp Kind = "password_sign_up"
	KindPasswordSignIn Kind = "password_sign_in"
	KindCodeRequest    Kind = "code_request"
	KindCodeVerify     Kind = "code_verify"
	KindFederated      Kind = "federated"
	KindAnonymous      Kind = "anonymous"
)

// Request is the tagged union over the credential flows. Only the fields
// relevant to the Kind are read; the gateway fills it from the route and
// dispatches uniformly, so new flows slot in without touching session or
// token logic.
type Request struct {
	Kind      Kind
	Email     string // password flows, code request, federated
	Password  string // password flows
	Code      string // code verify
	SessionID string // anonymous bootstrap
}

// Authenticate resolves a flow request to a session id or a typed
// failure. CodeRequest returns an empty session id: it only queues a code.
func (s *Service) Authenticate(ctx context.Context, req Request) (string, error) {
	switch req.Kind {
	case KindPasswordSignUp:
		return s.SignUp(req.Email, req.Password)
	case KindPasswordSignIn:
		return s.SignIn(req.Email, req.Password)
	case KindCodeRequest:
		return "", s.RequestCode(ctx, req.Email)
	case KindCodeVerify:
		return s.VerifyCode(req.Code)
	case KindFederated:
		return s.FederatedSignIn(req.Email)
	case KindAnonymous:
		return s.Bootstrap(req.SessionID)
	default:
		return "", errors.Errorf("[Service.Authenticate] unknown flow kind %q", req.Kind)
	}
}
